// Package newton implements the scaled Newton–Raphson solver (spec §4.8):
// per-variable convergence, a linear-error gate, a descent-direction
// gate, and a halving line search. Grounded on
// other_examples/8490ca05_soypat-godesim__algorithms.go.go's
// NewtonRaphsonSolver for the overall iterate/residual/linear-solve loop
// shape, generalized from that example's single scalar-error gate to the
// spec's simultaneous per-variable convergence plus line search and
// descent check.
package newton

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/plasmacore/tokamak-core/jacobian"
	"github.com/plasmacore/tokamak-core/linsolve"
)

// Reason tags why a Newton solve stopped without converging (spec §7:
// "Convergence-soft... reason ∈ {LINEAR_ERROR, DESCENT, LINE_SEARCH,
// MAX_ITER}").
type Reason int

const (
	ReasonNone Reason = iota
	ReasonLinearError
	ReasonDescent
	ReasonLineSearch
	ReasonMaxIter
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonLinearError:
		return "LINEAR_ERROR"
	case ReasonDescent:
		return "DESCENT"
	case ReasonLineSearch:
		return "LINE_SEARCH"
	case ReasonMaxIter:
		return "MAX_ITER"
	default:
		return "unknown"
	}
}

// VariableRange names one of the four contiguous ranges within the
// flattened state, with its own convergence tolerance.
type VariableRange struct {
	Name      string
	Start, End int
	Tolerance float64
}

// Config bundles the knobs spec §4.8 names: per-variable tolerances
// (spec defaults: Ti,Te tol=10, Ne tol=0.1, Psi tol=1e-3, compared here
// against the residual in whatever units the ResidualFunc returns it), max
// iterations, minimum line-search step.
type Config struct {
	Variables []VariableRange
	MaxIter   int
	AlphaMin  float64
	LinearErrorGate float64
}

// DefaultAlphaMin matches the common halving-line-search floor (2^-10).
const DefaultAlphaMin = 1.0 / 1024

// ResidualFunc evaluates R(x̃) in scaled variables. It is an alias of
// jacobian.ResidualFunc so residual callbacks pass straight through to
// jacobian.Build without conversion.
type ResidualFunc = jacobian.ResidualFunc

// PhysicalFunc reports whether a scaled state is physical: positive
// Ti/Te/Ne, finite psi, no NaN/Inf anywhere (spec §4.8).
type PhysicalFunc func(xScaled []float64) bool

// Result carries everything the orchestrator needs to decide whether to
// retry (spec §7): converged flag, iteration count, residual norm, and
// the structured metadata {linear_error, descent_value, failure_type}.
type Result struct {
	XScaled      []float64
	Converged    bool
	Iterations   int
	ResidualNorm float64
	Reason       Reason
	LinearError  float64
	DescentValue float64
}

// Solve runs the Newton loop described in spec §4.8's pseudocode, polling
// ctx before every iteration (not just once per call) so a long-running
// solve near MaxIter can still be cancelled mid-loop (spec §5).
func Solve(ctx context.Context, x0Scaled []float64, residual ResidualFunc, vjp jacobian.VJPFunc, physical PhysicalFunc, cfg Config) (Result, error) {
	x := append([]float64(nil), x0Scaled...)
	if cfg.AlphaMin <= 0 {
		cfg.AlphaMin = DefaultAlphaMin
	}
	if cfg.LinearErrorGate <= 0 {
		cfg.LinearErrorGate = 1e-3
	}

	r, err := residual(x)
	if err != nil {
		return Result{}, err
	}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if perVariableConverged(r, cfg.Variables) {
			return Result{XScaled: x, Converged: true, Iterations: iter, ResidualNorm: l2norm(r), Reason: ReasonNone}, nil
		}

		J, err := jacobian.Build(residual, vjp, x)
		if err != nil {
			return Result{}, err
		}
		negR := make([]float64, len(r))
		for i, v := range r {
			negR[i] = -v
		}
		lin := linsolve.Solve(J, negR)

		if lin.LinearError > cfg.LinearErrorGate {
			return Result{XScaled: x, Converged: false, Iterations: iter, ResidualNorm: l2norm(r), Reason: ReasonLinearError, LinearError: lin.LinearError, DescentValue: lin.DescentValue}, nil
		}
		if lin.DescentValue <= 0 {
			return Result{XScaled: x, Converged: false, Iterations: iter, ResidualNorm: l2norm(r), Reason: ReasonDescent, LinearError: lin.LinearError, DescentValue: lin.DescentValue}, nil
		}

		baseNorm := l2norm(r)
		alpha := 1.0
		accepted := false
		var trial []float64
		var rTrial []float64
		for alpha >= cfg.AlphaMin {
			trial = addScaled(x, alpha, lin.Delta)
			if physical == nil || physical(trial) {
				rt, err := residual(trial)
				if err == nil {
					if l2norm(rt) < baseNorm {
						rTrial = rt
						accepted = true
						break
					}
				}
			}
			alpha /= 2
		}
		if !accepted {
			return Result{XScaled: x, Converged: false, Iterations: iter, ResidualNorm: baseNorm, Reason: ReasonLineSearch, LinearError: lin.LinearError, DescentValue: lin.DescentValue}, nil
		}
		x = trial
		r = rTrial
	}
	return Result{XScaled: x, Converged: false, Iterations: cfg.MaxIter, ResidualNorm: l2norm(r), Reason: ReasonMaxIter}, nil
}

// perVariableConverged requires each named variable range's own residual
// norm to be under its own tolerance simultaneously — spec §4.8: "a
// single summed norm is insufficient because Tₑ typically dominates."
func perVariableConverged(r []float64, vars []VariableRange) bool {
	for _, v := range vars {
		if l2norm(r[v.Start:v.End]) >= v.Tolerance {
			return false
		}
	}
	return true
}

func l2norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

func addScaled(x []float64, alpha float64, delta []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + alpha*delta[i]
	}
	return out
}

// Physical is the standard physicality check for this system's scaled
// state layout: positive Ti/Te/Ne ranges, finite psi, no NaN/Inf
// anywhere (spec §4.8).
func Physical(tiRange, teRange, neRange, psiRange VariableRange) PhysicalFunc {
	return func(x []float64) bool {
		for i := range x {
			if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
				return false
			}
		}
		for i := tiRange.Start; i < tiRange.End; i++ {
			if x[i] <= 0 {
				return false
			}
		}
		for i := teRange.Start; i < teRange.End; i++ {
			if x[i] <= 0 {
				return false
			}
		}
		for i := neRange.Start; i < neRange.End; i++ {
			if x[i] <= 0 {
				return false
			}
		}
		_ = psiRange
		return true
	}
}
