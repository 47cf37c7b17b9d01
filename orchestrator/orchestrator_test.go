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

func uniformProfiles(n int, ti, te, ne, psi float64) profile.Profiles {
	fill := func(v float64) tensor.T {
		buf := make([]float64, n)
		for i := range buf {
			buf[i] = v
		}
		return tensor.FromValues(buf, []int{n})
	}
	return profile.Profiles{Ti: fill(ti), Te: fill(te), Ne: fill(ne), Psi: fill(psi)}
}

func newRange(layout profile.Layout, rng [2]int, tol float64) newton.VariableRange {
	return newton.VariableRange{Start: rng[0], End: rng[1], Tolerance: tol}
}

// TestAdvanceOneConvergesWithZeroTransport exercises the E1-style steady
// state: no transport, no sources, Dirichlet boundary conditions matching
// the initial uniform profile exactly. With chi=D=0 everywhere the
// spatial operator is identically zero, so the root of the residual is
// xn+1 = xn and Newton should accept on its very first evaluation.
func TestAdvanceOneConvergesWithZeroTransport(t *testing.T) {
	n := 4
	g := mesh.NewCircular(6.2, 2.0, 5.3, n, 1.0, 3.0)
	initial := uniformProfiles(n, 1000, 1000, 1e20, 0)
	layout := profile.NewLayout(n)

	bcs := residual.BoundaryConditions{
		Ti:  bc.DefaultTemperatureOrDensity(1000),
		Te:  bc.DefaultTemperatureOrDensity(1000),
		Ne:  bc.DefaultTemperatureOrDensity(1e20),
		Psi: bc.DefaultPsi(0),
	}

	cfg := Config{
		Geometry: g,
		BCs:      bcs,
		DynamicParams: func(t float64) physics.Params {
			return physics.Params(fun.Prms{})
		},
		Models: func(p physics.Params) coeff.Models { return coeff.Models{} },
		Scales: Scales{Ti: 1000, Te: 1000, Ne: 1e20, Psi: 1},
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
		ProgressEveryK: 1,
	}

	var lastSnap snapshot.SimulationSnapshot
	cfg.OnSnapshot = func(s snapshot.SimulationSnapshot) { lastSnap = s }

	orch := New(cfg, initial, 1e-3)
	snap, err := orch.AdvanceOne(context.Background())
	if err != nil {
		t.Fatalf("AdvanceOne failed: %v", err)
	}
	if snap.Time != 1e-3 {
		t.Fatalf("time = %v, want 1e-3", snap.Time)
	}
	if lastSnap.Time != snap.Time {
		t.Fatalf("OnSnapshot callback did not observe the committed step")
	}
	for i, v := range snap.Profiles.Ti {
		if v < 999.9 || v > 1000.1 {
			t.Fatalf("Ti[%d] = %v, want ~1000 (steady state)", i, v)
		}
	}
}

func TestAdvanceOneHonorsCancellation(t *testing.T) {
	n := 2
	g := mesh.NewCircular(6.2, 2.0, 5.3, n, 1.0, 3.0)
	initial := uniformProfiles(n, 1000, 1000, 1e20, 0)
	layout := profile.NewLayout(n)
	bcs := residual.BoundaryConditions{
		Ti:  bc.DefaultTemperatureOrDensity(1000),
		Te:  bc.DefaultTemperatureOrDensity(1000),
		Ne:  bc.DefaultTemperatureOrDensity(1e20),
		Psi: bc.DefaultPsi(0),
	}
	cfg := Config{
		Geometry:      g,
		BCs:           bcs,
		DynamicParams: func(t float64) physics.Params { return physics.Params(fun.Prms{}) },
		Models:        func(p physics.Params) coeff.Models { return coeff.Models{} },
		Scales:        Scales{Ti: 1000, Te: 1000, Ne: 1e20, Psi: 1},
		Theta:         1.0,
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
	}
	orch := New(cfg, initial, 1e-3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orch.AdvanceOne(ctx)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
	if orch.Time() != 0 {
		t.Fatalf("cancelled step must not commit: time = %v", orch.Time())
	}
}
