// Package errorsx defines the structured error kinds of spec §7:
// convergence-soft, convergence-terminal, validation, unit mismatch,
// cancellation, and resource errors. Every numerically soft failure
// carries structured metadata (linear_error, descent_value, residual_norm,
// iter) so callers can log post-mortem diagnostics without string
// parsing. Grounded on the teacher's github.com/cpmech/gosl/chk package,
// which distinguishes panics (programmer errors) from returned *Error
// values (recoverable) the same way spec §7 distinguishes Validation/Unit
// kinds (fail-fast, no recovery) from Convergence-terminal (surfaced,
// structured, recoverable by the caller).
package errorsx

import "fmt"

// Kind tags the category of failure spec §7 names.
type Kind int

const (
	KindConvergenceSoft Kind = iota
	KindConvergenceTerminal
	KindValidation
	KindUnitMismatch
	KindCancellation
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConvergenceSoft:
		return "convergence-soft"
	case KindConvergenceTerminal:
		return "convergence-terminal"
	case KindValidation:
		return "validation"
	case KindUnitMismatch:
		return "unit-mismatch"
	case KindCancellation:
		return "cancellation"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is the structured error type the orchestrator returns for
// cancellation and terminal step failure; other packages return plain
// errors (coeff wraps model failures with chk.Err). Message is a human summary; the numeric fields are only
// populated when relevant to Kind (e.g. LinearError/DescentValue for
// Convergence-soft/terminal).
type Error struct {
	Kind         Kind
	Message      string
	Time         float64
	LastDt       float64
	LinearError  float64
	DescentValue float64
	ResidualNorm float64
	Iter         int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StepFailed builds the Convergence-terminal error spec §7 names
// explicitly: "Surfaced to caller as StepFailed(time, lastDt, reason)".
func StepFailed(time, lastDt float64, reason string) *Error {
	return &Error{
		Kind:    KindConvergenceTerminal,
		Message: fmt.Sprintf("step failed at t=%v with dt=%v: %s", time, lastDt, reason),
		Time:    time,
		LastDt:  lastDt,
	}
}

// Validation builds a fail-fast Validation error (non-finite/negative
// state, shape mismatch, conflicting boundary conditions).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// UnitMismatch builds the fatal programmer-error kind for a source term
// crossing a code path with the wrong unit tag (spec §7).
func UnitMismatch(format string, args ...any) *Error {
	return &Error{Kind: KindUnitMismatch, Message: fmt.Sprintf(format, args...)}
}

// Cancellation builds the non-error unwind signal spec §7 calls out
// explicitly as "not an error; unwind cleanly, preserve last committed
// state" — still modeled as an *Error so callers can use one error return
// path, but callers should treat this kind specially rather than logging
// it as a failure.
func Cancellation(time float64) *Error {
	return &Error{Kind: KindCancellation, Message: "cancelled", Time: time}
}

// Resource builds the OOM/kernel-failure kind spec §7 says must "surface
// directly; no recovery possible".
func Resource(format string, args ...any) *Error {
	return &Error{Kind: KindResource, Message: fmt.Sprintf(format, args...)}
}
