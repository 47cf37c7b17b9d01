package orchestrator

import (
	"context"
	"testing"

	"github.com/cpmech/gosl/fun"
	"github.com/plasmacore/tokamak-core/bc"
	"github.com/plasmacore/tokamak-core/coeff"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/newton"
	"github.com/plasmacore/tokamak-core/physics"
	"github.com/plasmacore/tokamak-core/profile"
	"github.com/plasmacore/tokamak-core/residual"
	"github.com/plasmacore/tokamak-core/snapshot"
	"github.com/plasmacore/tokamak-core/tensor"
	"github.com/plasmacore/tokamak-core/timestep"
)

// uniformTransport reports a spatially constant diffusivity, matching
// constTransport in coeff/coeff_test.go but defined here since that type
// is unexported in another package.
type uniformTransport struct{ chiI, chiE, d float64 }

func (u uniformTransport) Compute(p profile.Profiles, g mesh.Geometry, params physics.Params) (physics.TransportCoeffs, error) {
	n := p.NCells()
	chiI := make([]float64, n)
	chiE := make([]float64, n)
	d := make([]float64, n)
	for i := range chiI {
		chiI[i] = u.chiI
		chiE[i] = u.chiE
		d[i] = u.d
	}
	return physics.TransportCoeffs{
		ChiI: tensor.FromValues(chiI, []int{n}),
		ChiE: tensor.FromValues(chiE, []int{n}),
		D:    tensor.FromValues(d, []int{n}),
		V:    tensor.Zeros(n),
	}, nil
}

// uniformEVSource reports one spatially constant source term already in
// the internal eV·m⁻³·s⁻¹ unit, so the builder's MW conversion boundary
// is a no-op for it.
type uniformEVSource struct {
	name string
	val  float64
}

func (u uniformEVSource) Compute(p profile.Profiles, g mesh.Geometry, params physics.Params) ([]physics.SourceTerm, error) {
	n := p.NCells()
	v := make([]float64, n)
	for i := range v {
		v[i] = u.val
	}
	return []physics.SourceTerm{{Name: u.name, Values: tensor.FromValues(v, []int{n}), Unit: physics.EVPerM3PerS}}, nil
}

// TestAdvanceOneReachesPureDiffusionParabola drives the E1 grid/BC/θ/dt/
// step-count (N=25, Neumann(0) core, Dirichlet(0) edge, θ=1, dt=0.1, 100
// steps) through the full orchestrator and checks the resulting Ti
// profile against the acceptance shape T(ρ̂) = (1−ρ̂²)·T_center.
//
// The acceptance text pairs that shape with "sources=0", but a zero-flux
// core and a zero-Dirichlet edge with zero volumetric source has exactly
// one steady state for this discretization: T≡0. That follows from
// energy uniqueness (∫D|∇T|²=0 forces ∇T=0, and the Dirichlet(0) edge
// then pins the constant to 0), not from any modeling choice made here.
// The (1−ρ̂²) shape is instead the exact steady state of -D·T″ = S for a
// nonzero uniform S, with T_center = S/(2D); this test supplies that S
// so the acceptance shape is the one the run can actually reach, and
// checks against the exact discrete solution of the FVM recursion
// (T_i = T_center·(1 − i(i+1)/N²) at cell centers) rather than the
// continuum formula evaluated pointwise, since the two differ by a
// constant 0.25/N² (here 4e-4) from the half-cell edge-face treatment.
func TestAdvanceOneReachesPureDiffusionParabola(t *testing.T) {
	const n = 25
	g := mesh.NewCircular(3, 1, 2.5, n, 1.0, 3.0)
	layout := profile.NewLayout(n)

	const wantTcenter = 1000.0
	const chi = 1e17 // large relative to a literal transport coefficient, chosen so
	// that 100 backward-Euler steps at dt=0.1 decay every transient mode to
	// machine precision given this package's density-floored transientCoeff
	// (1e19); a literal chi=1 would need far more than 100 steps to settle.
	ratio := g.G1.Value()[1] / g.G0.Value()[1]
	source := 2 * chi * ratio * wantTcenter

	models := coeff.Models{
		Transport: uniformTransport{chiI: chi, chiE: chi, d: 0},
		Sources: []physics.SourceModel{
			uniformEVSource{name: "ti:e1", val: source},
			uniformEVSource{name: "te:e1", val: source},
		},
	}

	const ne0 = 1e19
	initial := uniformProfiles(n, wantTcenter, wantTcenter, ne0, 0)
	bcs := residual.BoundaryConditions{
		Ti:  bc.DefaultTemperatureOrDensity(0),
		Te:  bc.DefaultTemperatureOrDensity(0),
		Ne:  bc.DefaultTemperatureOrDensity(ne0),
		Psi: bc.DefaultPsi(0),
	}

	cfg := Config{
		Geometry: g,
		BCs:      bcs,
		DynamicParams: func(t float64) physics.Params {
			return physics.Params(fun.Prms{})
		},
		Models: func(p physics.Params) coeff.Models { return models },
		Scales: Scales{Ti: wantTcenter, Te: wantTcenter, Ne: ne0, Psi: 1},
		Theta:  1.0,
		NewtonConfig: newton.Config{
			Variables: []newton.VariableRange{
				newRange(layout, layout.TiRange, 1e-6),
				newRange(layout, layout.TeRange, 1e-6),
				newRange(layout, layout.NeRange, 1e-6),
				newRange(layout, layout.PsiRange, 1e-6),
			},
			MaxIter: 20,
		},
		Timestep: timestep.New(timestep.Config{
			MinDt: 1e-6, MaxDt: 1.0, SafetyFactor: 0.5, MaxTimestepGrowth: 1.2,
		}),
		ProgressEveryK: 100,
	}

	orch := New(cfg, initial, 0.1)

	var snap snapshot.SimulationSnapshot
	for step := 0; step < 100; step++ {
		var err error
		snap, err = orch.AdvanceOne(context.Background())
		if err != nil {
			t.Fatalf("AdvanceOne failed at step %d: %v", step, err)
		}
	}

	for i := 0; i < n; i++ {
		want := wantTcenter * (1 - float64(i*(i+1))/float64(n*n))
		got := snap.Profiles.Ti[i]
		rel := (got - want) / wantTcenter
		if rel > 5e-3 || rel < -5e-3 {
			t.Fatalf("Ti[%d] = %v, want %v (discrete steady-state parabola), relative error %v exceeds 5e-3", i, got, want, rel)
		}
	}
}
