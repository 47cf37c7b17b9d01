package errorsx

import "testing"

func TestStepFailedCarriesTimeAndDt(t *testing.T) {
	err := StepFailed(1.25, 9e-6, "retries exhausted")
	if err.Kind != KindConvergenceTerminal {
		t.Fatalf("Kind = %v, want convergence-terminal", err.Kind)
	}
	if err.Time != 1.25 || err.LastDt != 9e-6 {
		t.Fatalf("Time/LastDt not preserved: %+v", err)
	}
	if err.Error() == "" {
		t.Fatalf("Error() returned empty string")
	}
}

func TestKindStringNames(t *testing.T) {
	cases := map[Kind]string{
		KindConvergenceSoft:     "convergence-soft",
		KindConvergenceTerminal: "convergence-terminal",
		KindValidation:          "validation",
		KindUnitMismatch:        "unit-mismatch",
		KindCancellation:        "cancellation",
		KindResource:            "resource",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestCancellationIsNotLoggedAsConvergenceFailure(t *testing.T) {
	err := Cancellation(3.0)
	if err.Kind != KindCancellation {
		t.Fatalf("Kind = %v, want cancellation", err.Kind)
	}
}
