// Command tokamaksim is a minimal driver that wires a demo configuration
// through the orchestrator and prints progress lines, mirroring the
// banner/error-reporting style of the teacher's main.go. CLI flags,
// config-file schemas, and exit-code conventions are explicitly out of
// scope (spec §1/§6: "CLI / persistence are explicitly out of scope; any
// bytewise file formats, JSON schemas, flags, and exit codes are the
// concern of an external driver") — this file exists only to demonstrate
// the orchestrator boundary with a working example, not to be a real CLI.
package main

import (
	"context"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"

	"github.com/plasmacore/tokamak-core/bc"
	"github.com/plasmacore/tokamak-core/coeff"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/newton"
	"github.com/plasmacore/tokamak-core/orchestrator"
	"github.com/plasmacore/tokamak-core/physics"
	"github.com/plasmacore/tokamak-core/profile"
	"github.com/plasmacore/tokamak-core/residual"
	"github.com/plasmacore/tokamak-core/snapshot"
	"github.com/plasmacore/tokamak-core/tensor"
	"github.com/plasmacore/tokamak-core/timestep"
)

const nCells = 25
const nSteps = 20

func uniform(n int, v float64) tensor.T {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = v
	}
	return tensor.FromValues(buf, []int{n})
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	io.PfWhite("\ntokamaksim -- 1-D tokamak core transport demo\n\n")

	g := mesh.NewCircular(6.2, 2.0, 5.3, nCells, 1.0, 3.5)
	initial := profile.Profiles{
		Ti:  uniform(nCells, 1000),
		Te:  uniform(nCells, 1000),
		Ne:  uniform(nCells, 5e19),
		Psi: uniform(nCells, 0),
	}
	layout := profile.NewLayout(nCells)

	bcs := residual.BoundaryConditions{
		Ti:  bc.DefaultTemperatureOrDensity(100),
		Te:  bc.DefaultTemperatureOrDensity(100),
		Ne:  bc.DefaultTemperatureOrDensity(2e19),
		Psi: bc.DefaultPsi(0),
	}

	cfg := orchestrator.Config{
		Geometry: g,
		BCs:      bcs,
		DynamicParams: func(t float64) physics.Params {
			return physics.Params(fun.Prms{})
		},
		Models: func(p physics.Params) coeff.Models { return coeff.Models{} },
		Scales: orchestrator.Scales{Ti: 1000, Te: 1000, Ne: 5e19, Psi: 1},
		Theta:  1.0,
		NewtonConfig: newton.Config{
			Variables: []newton.VariableRange{
				{Name: "Ti", Start: layout.TiRange[0], End: layout.TiRange[1], Tolerance: 10},
				{Name: "Te", Start: layout.TeRange[0], End: layout.TeRange[1], Tolerance: 10},
				{Name: "Ne", Start: layout.NeRange[0], End: layout.NeRange[1], Tolerance: 0.1},
				{Name: "Psi", Start: layout.PsiRange[0], End: layout.PsiRange[1], Tolerance: 1e-3},
			},
			MaxIter: 30,
		},
		Timestep: timestep.New(timestep.Config{
			MinDtFraction: 1e-4,
			MaxDt:         1e-2,
			SafetyFactor:  0.5,
		}),
		ProgressEveryK: 5,
		OnProgress: func(p snapshot.ProgressInfo) {
			io.Pf("step %d  t=%.6e\n", p.Step, p.CurrentTime)
		},
	}

	orch := orchestrator.New(cfg, initial, 1e-4)
	ctx := context.Background()
	for i := 0; i < nSteps; i++ {
		if _, err := orch.AdvanceOne(ctx); err != nil {
			io.PfRed("step failed: %v\n", err)
			break
		}
	}

	result := orch.Result()
	io.Pf("\nfinished: %d accepted steps, %d retries, final t=%.6e\n",
		result.Statistics.AcceptedSteps, result.Statistics.RetriedSteps, result.Statistics.FinalTime)
}
