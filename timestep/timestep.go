// Package timestep implements the adaptive timestep controller (spec
// §4.9): a CFL-based raw proposal, a growth cap, floor/ceiling clamping,
// and a halving retry policy with a hard minimum. Grounded on
// other_examples/8490ca05_soypat-godesim__algorithms.go.go's
// RKF45Solver/DormandPrinceSolver adaptive-step blocks (errRatio, hnew
// clamped to [Step.Min, Step.Max]) for the clamp-and-cap shape, and on
// fem/dyncoefs.go's hmin (DtMin) validation-panic discipline for the
// effectiveMinDt invariant.
package timestep

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// DefaultMaxTimestepGrowth is the spec's default growth cap (§4.9: "default
// growth = 1.2").
const DefaultMaxTimestepGrowth = 1.2

// DefaultMaxDtRetries is the spec's default retry budget (§4.9 / §7).
const DefaultMaxDtRetries = 3

// Config bundles the adaptive-timestep knobs from spec §4.3.
// effectiveMinDt is derived, not stored directly: effectiveMinDt =
// minDt if set, else maxDt*minDtFraction.
type Config struct {
	MinDt              float64 // optional; 0 means "not set"
	MinDtFraction      float64 // used when MinDt == 0
	MaxDt              float64
	SafetyFactor       float64
	MaxTimestepGrowth  float64
	MaxDtRetries       int
}

// Controller holds the validated, derived configuration and enforces the
// invariant that the step must never exceed maxDt or undercut
// effectiveMinDt (spec §4.9: "the controller must be initialized with the
// user-provided effectiveMinDt — mis-wiring the default is a known
// historical failure mode").
type Controller struct {
	cfg            Config
	effectiveMinDt float64
}

// New validates cfg and derives effectiveMinDt, panicking (per the
// teacher's chk.Panic discipline, e.g. fem/dyncoefs.go's hmin check) on an
// invalid configuration rather than silently clamping it.
func New(cfg Config) *Controller {
	if cfg.MaxTimestepGrowth <= 0 {
		cfg.MaxTimestepGrowth = DefaultMaxTimestepGrowth
	}
	if cfg.MaxDtRetries <= 0 {
		cfg.MaxDtRetries = DefaultMaxDtRetries
	}
	effectiveMinDt := cfg.MinDt
	if effectiveMinDt == 0 {
		effectiveMinDt = cfg.MaxDt * cfg.MinDtFraction
	}
	if effectiveMinDt <= 0 {
		chk.Panic("timestep: effectiveMinDt must be positive, got %v", effectiveMinDt)
	}
	if effectiveMinDt >= cfg.MaxDt {
		chk.Panic("timestep: effectiveMinDt (%v) must be less than maxDt (%v)", effectiveMinDt, cfg.MaxDt)
	}
	return &Controller{cfg: cfg, effectiveMinDt: effectiveMinDt}
}

// EffectiveMinDt returns the derived floor this controller enforces.
func (c *Controller) EffectiveMinDt() float64 { return c.effectiveMinDt }

// Proposal is the result of Propose: the dt to use this step, whether the
// growth cap clipped the raw CFL estimate, and the raw (pre-cap) value for
// diagnostics/logging.
type Proposal struct {
	Dt       float64
	Capped   bool
	RawDt    float64
}

// Propose computes dt_raw = safetyFactor * dRhoHat^2 / max(chiOrD...),
// applies the growth cap relative to previousDt, then clamps to
// [effectiveMinDt, maxDt] (spec §4.9).
func (c *Controller) Propose(dRhoHat float64, maxDiffusivity float64, previousDt float64) Proposal {
	if maxDiffusivity <= 0 {
		maxDiffusivity = 1e-300 // avoid division by zero; yields a huge raw dt that the ceiling then clamps
	}
	dtRaw := c.cfg.SafetyFactor * dRhoHat * dRhoHat / maxDiffusivity

	capped := false
	dt := dtRaw
	if previousDt > 0 {
		grown := previousDt * c.cfg.MaxTimestepGrowth
		if dt > grown {
			dt = grown
			capped = true
		}
	}
	if dt > c.cfg.MaxDt {
		dt = c.cfg.MaxDt
	}
	if dt < c.effectiveMinDt {
		dt = c.effectiveMinDt
	}
	if capped {
		io.Pf("timestep: growth cap applied, dt_raw=%.6e capped to dt=%.6e\n", dtRaw, dt)
	}
	return Proposal{Dt: dt, Capped: capped, RawDt: dtRaw}
}

// RetryResult reports whether halving produced a usable dt or whether the
// retry budget / effectiveMinDt floor was hit, in which case the step must
// fail terminally (spec §4.9 / §7: "If dt/2 < effectiveMinDt before
// convergence, the step fails terminally").
type RetryResult struct {
	Dt       float64
	Terminal bool
}

// Retry halves currentDt for attempt (1-indexed: the first retry after the
// initial failed attempt). It reports Terminal=true, without applying the
// halving, once either the configured retry budget is exhausted or the
// halved value would fall below effectiveMinDt.
func (c *Controller) Retry(currentDt float64, attempt int) RetryResult {
	if attempt > c.cfg.MaxDtRetries {
		return RetryResult{Dt: currentDt, Terminal: true}
	}
	next := currentDt / 2
	if next < c.effectiveMinDt || math.IsNaN(next) {
		return RetryResult{Dt: currentDt, Terminal: true}
	}
	return RetryResult{Dt: next, Terminal: false}
}
