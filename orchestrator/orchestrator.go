// Package orchestrator composes one simulation step out of the timestep
// controller, the coefficient-builder callback, and the Newton solver
// (spec §4.10): build dynamicParams, close the coefficient callback,
// invoke Newton, commit or retry. Each step starts from the last committed
// dt (dt0 for the first step); the controller supplies only the retry
// halving, and its CFL proposal (Controller.Propose) and growth cap are not
// applied here. Grounded on
// fem/domain.go's Domain (owns the mutable state a solver advances) and
// fem/solver.go's Solver interface (drives a sequence of steps, checking
// convergence and handling divergence by retry), generalized from FEM's
// static-mesh structural time-stepping to this module's profile/geometry
// advancement with cooperative cancellation (spec §5).
package orchestrator

import (
	"context"

	"github.com/cpmech/gosl/io"
	"github.com/plasmacore/tokamak-core/coeff"
	"github.com/plasmacore/tokamak-core/errorsx"
	"github.com/plasmacore/tokamak-core/jacobian"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/newton"
	"github.com/plasmacore/tokamak-core/physics"
	"github.com/plasmacore/tokamak-core/profile"
	"github.com/plasmacore/tokamak-core/residual"
	"github.com/plasmacore/tokamak-core/snapshot"
	"github.com/plasmacore/tokamak-core/tensor"
	"github.com/plasmacore/tokamak-core/timestep"
)

// Scales gives the per-variable reference magnitude Newton nondimensionalizes
// by (spec §4.8: "scaled variables x̃ = x/xref"). The residual itself stays
// in physical units — only the Newton iterate is rescaled for conditioning,
// which is why the per-variable convergence tolerances in newton.Config are
// given directly in the physical units of each equation's residual.
type Scales struct {
	Ti, Te, Ne, Psi float64
}

// DynamicParamsFunc returns the time-varying parameter set at a given
// simulation time (spec §4.10: "build dynamicParams at t and t+dt").
type DynamicParamsFunc func(t float64) physics.Params

// ModelsFactory builds the physics-model collaborators for a given
// parameter set; most configurations return the same static Models value
// regardless of params, but the signature allows time-varying model
// selection (e.g. a pedestal model that only activates past a given time).
type ModelsFactory func(params physics.Params) coeff.Models

// ProgressFunc is the throttled progress callback (spec §4.10: "invoked at
// most every K steps").
type ProgressFunc func(snapshot.ProgressInfo)

// SnapshotFunc is invoked once per accepted step, in commit order (spec
// §6).
type SnapshotFunc func(snapshot.SimulationSnapshot)

// Config bundles everything an Orchestrator needs beyond the live state:
// static geometry generator, boundary conditions, model wiring, Newton /
// timestep configuration, and the two callback ports.
type Config struct {
	Geometry         mesh.Geometry
	BCs              residual.BoundaryConditions
	DynamicParams    DynamicParamsFunc
	Models           ModelsFactory
	Scales           Scales
	Theta            float64
	NewtonConfig     newton.Config
	Timestep         *timestep.Controller
	ProgressEveryK   int
	OnProgress       ProgressFunc
	OnSnapshot       SnapshotFunc
}

// Orchestrator owns the mutable simulation state; the advancement
// function itself is pure given (xⁿ, staticParams, dynamicParams) (spec
// §5).
type Orchestrator struct {
	cfg           Config
	layout        profile.Layout
	state         profile.State
	time          float64
	dt            float64
	step          int
	acceptedSteps int
	retriedSteps  int
	paused        bool
	coeffCache    *coeff.Cache
}

// New builds an Orchestrator from an initial profile state and dt.
func New(cfg Config, initial profile.Profiles, dt0 float64) *Orchestrator {
	if cfg.ProgressEveryK <= 0 {
		cfg.ProgressEveryK = 10
	}
	st := profile.Flatten(initial)
	return &Orchestrator{
		cfg:        cfg,
		layout:     st.Layout,
		state:      st,
		dt:         dt0,
		coeffCache: coeff.NewCache(coeff.DefaultCacheCapacity),
	}
}

// Pause/Resume flip the cooperative pause flag (spec §5: "Pause/Resume
// are separate flags flipped via the orchestrator's public interface").
func (o *Orchestrator) Pause()  { o.paused = true }
func (o *Orchestrator) Resume() { o.paused = false }
func (o *Orchestrator) Paused() bool { return o.paused }

// Time returns the last committed simulation time.
func (o *Orchestrator) Time() float64 { return o.time }

// State returns the last committed packed state.
func (o *Orchestrator) State() profile.State { return o.state }

// AdvanceOne attempts one accepted step, retrying with a halved dt on
// Newton non-convergence up to the controller's retry budget (spec §4.9),
// and honoring cooperative cancellation both before the step starts and
// before each Newton iteration it triggers (spec §5). Context cancellation
// unwinds cleanly: the last committed state remains valid.
func (o *Orchestrator) AdvanceOne(ctx context.Context) (snapshot.SimulationSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.SimulationSnapshot{}, errorsx.Cancellation(o.time)
	}

	xn := profile.Unflatten(o.state)
	dt := o.dt
	attempt := 0

	for {
		if err := ctx.Err(); err != nil {
			return snapshot.SimulationSnapshot{}, errorsx.Cancellation(o.time)
		}

		paramsAtEnd := o.cfg.DynamicParams(o.time + dt)
		models := o.cfg.Models(paramsAtEnd)
		builder := coeff.NewBuilder(models, paramsAtEnd)
		ev := residual.Evaluator{Builder: builder, BCs: o.cfg.BCs, Cache: o.coeffCache}
		tc := residual.NewThetaCoefs(o.cfg.Theta, dt)

		res, err := o.runNewton(ctx, ev, xn, tc)
		if err != nil {
			return snapshot.SimulationSnapshot{}, err
		}

		if res.Converged {
			xnp1 := unscaleProfiles(res.XScaled, o.layout, o.cfg.Scales)
			o.commit(xnp1, dt)
			snap := o.buildSnapshot(xnp1)
			if o.cfg.OnSnapshot != nil {
				o.cfg.OnSnapshot(snap)
			}
			o.maybeReportProgress(xnp1)
			return snap, nil
		}

		attempt++
		o.retriedSteps++
		io.Pf("orchestrator: step at t=%.6e failed to converge (reason=%v), retrying with halved dt\n", o.time, res.Reason)
		retry := o.cfg.Timestep.Retry(dt, attempt)
		if retry.Terminal {
			return snapshot.SimulationSnapshot{}, errorsx.StepFailed(o.time, dt, res.Reason.String())
		}
		dt = retry.Dt
		o.coeffCache.Clear()
	}
}

// runNewton wraps the physical residual.Evaluator as a scaled ResidualFunc
// Newton can iterate on. ctx is threaded into newton.Solve itself, which
// polls it before every iteration (spec §5: "polled ... before each Newton
// iteration"), not just once per retry attempt here.
func (o *Orchestrator) runNewton(ctx context.Context, ev residual.Evaluator, xn profile.Profiles, tc residual.ThetaCoefs) (newton.Result, error) {
	if err := ctx.Err(); err != nil {
		return newton.Result{}, errorsx.Cancellation(o.time)
	}

	scales := o.cfg.Scales
	residualFn := func(xScaled []float64) ([]float64, error) {
		xnp1 := unscaleProfiles(xScaled, o.layout, scales)
		return ev.Residual(xn, xnp1, o.cfg.Geometry, tc)
	}

	x0 := scaleProfiles(xn, o.layout, scales)
	phys := newton.Physical(
		newton.VariableRange{Start: o.layout.TiRange[0], End: o.layout.TiRange[1]},
		newton.VariableRange{Start: o.layout.TeRange[0], End: o.layout.TeRange[1]},
		newton.VariableRange{Start: o.layout.NeRange[0], End: o.layout.NeRange[1]},
		newton.VariableRange{Start: o.layout.PsiRange[0], End: o.layout.PsiRange[1]},
	)
	var vjp jacobian.VJPFunc // no reverse-mode backend wired in; newton.Solve falls back to finite differences.
	res, err := newton.Solve(ctx, x0, residualFn, vjp, phys, o.cfg.NewtonConfig)
	if err != nil {
		if ctx.Err() != nil {
			return newton.Result{}, errorsx.Cancellation(o.time)
		}
		return newton.Result{}, err
	}
	return res, nil
}

func (o *Orchestrator) commit(xnp1 profile.Profiles, dt float64) {
	o.state = profile.Flatten(xnp1)
	o.time += dt
	o.dt = dt
	o.step++
	o.acceptedSteps++
	o.coeffCache.Clear()
}

func (o *Orchestrator) buildSnapshot(p profile.Profiles) snapshot.SimulationSnapshot {
	return snapshot.SimulationSnapshot{
		Time: o.time,
		Profiles: snapshot.SerializableProfiles{
			Ti:  append([]float64(nil), p.Ti.Value()...),
			Te:  append([]float64(nil), p.Te.Value()...),
			Ne:  append([]float64(nil), p.Ne.Value()...),
			Psi: append([]float64(nil), p.Psi.Value()...),
		},
	}
}

func (o *Orchestrator) maybeReportProgress(p profile.Profiles) {
	if o.cfg.OnProgress == nil {
		return
	}
	if o.step%o.cfg.ProgressEveryK != 0 {
		return
	}
	o.cfg.OnProgress(snapshot.ProgressInfo{
		Step:        o.step,
		CurrentTime: o.time,
		Profiles: snapshot.SerializableProfiles{
			Ti:  append([]float64(nil), p.Ti.Value()...),
			Te:  append([]float64(nil), p.Te.Value()...),
			Ne:  append([]float64(nil), p.Ne.Value()...),
			Psi: append([]float64(nil), p.Psi.Value()...),
		},
	})
}

// Result summarizes a completed run for the caller, mirroring
// snapshot.SimulationResult (spec §6).
func (o *Orchestrator) Result() snapshot.SimulationResult {
	p := profile.Unflatten(o.state)
	return snapshot.SimulationResult{
		FinalProfiles: snapshot.SerializableProfiles{
			Ti:  append([]float64(nil), p.Ti.Value()...),
			Te:  append([]float64(nil), p.Te.Value()...),
			Ne:  append([]float64(nil), p.Ne.Value()...),
			Psi: append([]float64(nil), p.Psi.Value()...),
		},
		Statistics: snapshot.Statistics{
			AcceptedSteps: o.acceptedSteps,
			RetriedSteps:  o.retriedSteps,
			FinalTime:     o.time,
		},
	}
}

func scaleProfiles(p profile.Profiles, layout profile.Layout, s Scales) []float64 {
	st := profile.Flatten(p)
	v := append([]float64(nil), st.Values.Value()...)
	divideRange(v, layout.TiRange, s.Ti)
	divideRange(v, layout.TeRange, s.Te)
	divideRange(v, layout.NeRange, s.Ne)
	divideRange(v, layout.PsiRange, s.Psi)
	return v
}

func unscaleProfiles(xScaled []float64, layout profile.Layout, s Scales) profile.Profiles {
	v := append([]float64(nil), xScaled...)
	multiplyRange(v, layout.TiRange, s.Ti)
	multiplyRange(v, layout.TeRange, s.Te)
	multiplyRange(v, layout.NeRange, s.Ne)
	multiplyRange(v, layout.PsiRange, s.Psi)
	n := layout.N
	return profile.Profiles{
		Ti:  tensor.FromValues(append([]float64(nil), v[0:n]...), []int{n}),
		Te:  tensor.FromValues(append([]float64(nil), v[n:2*n]...), []int{n}),
		Ne:  tensor.FromValues(append([]float64(nil), v[2*n:3*n]...), []int{n}),
		Psi: tensor.FromValues(append([]float64(nil), v[3*n:4*n]...), []int{n}),
	}
}

func divideRange(v []float64, rng [2]int, ref float64) {
	if ref == 0 {
		return
	}
	for i := rng[0]; i < rng[1]; i++ {
		v[i] /= ref
	}
}

func multiplyRange(v []float64, rng [2]int, ref float64) {
	if ref == 0 {
		return
	}
	for i := rng[0]; i < rng[1]; i++ {
		v[i] *= ref
	}
}
