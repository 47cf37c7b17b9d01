// Package snapshot defines the plain-old-data records that cross the
// orchestrator boundary (spec §6): ProgressInfo (throttled progress
// callback payload), SimulationSnapshot (one per accepted step), and
// SimulationResult (emitted once at termination). These are deliberately
// flat []float64 records, not tensor.T — spec §6: "initialProfiles:
// SerializableProfiles (plain floats)" — so nothing on this side of the
// boundary forces evaluation semantics onto a caller. Grounded on
// tests/check.go's Results/Iteration POD structs (plain exported fields,
// no behavior) and ele/element.go's Encode(enc utl.Encoder) contract for
// what belongs inside a serialized payload versus what stays internal.
package snapshot

// SerializableProfiles is the plain-float mirror of profile.Profiles used
// at the external boundary only.
type SerializableProfiles struct {
	Ti, Te, Ne, Psi []float64
}

// DerivedScalars carries the optional post-step scalars (safety factor,
// stored energy, etc.) that accompany a snapshot; a nil SafetyFactor means
// "not computed this step" (StoredEnergy has no unset marker).
type DerivedScalars struct {
	SafetyFactor []float64
	StoredEnergy float64
}

// ProgressInfo is the throttled payload delivered to progress callbacks
// (spec §6): step/totalSteps/currentTime plus the live profiles, emitted
// at most every K steps (default 10, spec §4.10).
type ProgressInfo struct {
	Step        int
	TotalSteps  int
	CurrentTime float64
	Profiles    SerializableProfiles
	Derived     *DerivedScalars
}

// SimulationSnapshot is emitted once per accepted step (spec §6), in
// commit order, with a monotone non-decreasing Time (spec §5: "Progress
// callbacks observe a monotone non-decreasing time").
type SimulationSnapshot struct {
	Time     float64
	Profiles SerializableProfiles
	Derived  *DerivedScalars
}

// Statistics summarizes a completed or aborted run: accepted/retried step
// counts and the final simulated time reached.
type Statistics struct {
	AcceptedSteps int
	RetriedSteps  int
	FinalTime     float64
}

// SimulationResult is emitted exactly once, at termination (spec §6).
type SimulationResult struct {
	FinalProfiles SerializableProfiles
	Statistics    Statistics
}
