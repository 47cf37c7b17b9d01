package residual

import (
	"math"
	"testing"

	"github.com/plasmacore/tokamak-core/bc"
	"github.com/plasmacore/tokamak-core/coeff"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/physics"
	"github.com/plasmacore/tokamak-core/profile"
	"github.com/plasmacore/tokamak-core/tensor"
)

type zeroTransport struct{}

func (zeroTransport) Compute(p profile.Profiles, g mesh.Geometry, params physics.Params) (physics.TransportCoeffs, error) {
	n := p.NCells()
	return physics.TransportCoeffs{ChiI: tensor.Zeros(n), ChiE: tensor.Zeros(n), D: tensor.Zeros(n), V: tensor.Zeros(n)}, nil
}

func flat(n int, v float64) tensor.T {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = v
	}
	return tensor.FromValues(buf, []int{n})
}

func TestNewThetaCoefsValidation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative dt")
		}
	}()
	NewThetaCoefs(1.0, -1)
}

func TestResidualZeroAtSteadyStateWithZeroTransport(t *testing.T) {
	n := 5
	g := mesh.NewCircular(3, 1, 2.5, n, 1.0, 3.0)
	p := profile.Profiles{Ti: flat(n, 1000), Te: flat(n, 900), Ne: flat(n, 1e19), Psi: flat(n, 0)}
	b := coeff.NewBuilder(coeff.Models{Transport: zeroTransport{}}, nil)
	bcs := BoundaryConditions{
		Ti:  bc.DefaultTemperatureOrDensity(1000),
		Te:  bc.DefaultTemperatureOrDensity(900),
		Ne:  bc.DefaultTemperatureOrDensity(1e19),
		Psi: bc.DefaultPsi(0),
	}
	ev := Evaluator{Builder: b, BCs: bcs}
	tc := NewThetaCoefs(1.0, 0.1)
	r, err := ev.Residual(p, p, g, tc)
	if err != nil {
		t.Fatalf("Residual failed: %v", err)
	}
	for i, v := range r {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("residual[%d] = %v, want ~0 at steady state with zero transport and no time change", i, v)
		}
	}
}

func TestResidualShapeIs4N(t *testing.T) {
	n := 7
	g := mesh.NewCircular(3, 1, 2.5, n, 1.0, 3.0)
	p := profile.Profiles{Ti: flat(n, 1000), Te: flat(n, 900), Ne: flat(n, 1e19), Psi: flat(n, 0)}
	b := coeff.NewBuilder(coeff.Models{Transport: zeroTransport{}}, nil)
	bcs := BoundaryConditions{
		Ti:  bc.DefaultTemperatureOrDensity(1000),
		Te:  bc.DefaultTemperatureOrDensity(900),
		Ne:  bc.DefaultTemperatureOrDensity(1e19),
		Psi: bc.DefaultPsi(0),
	}
	ev := Evaluator{Builder: b, BCs: bcs}
	tc := NewThetaCoefs(1.0, 0.1)
	r, err := ev.Residual(p, p, g, tc)
	if err != nil {
		t.Fatalf("Residual failed: %v", err)
	}
	if len(r) != 4*n {
		t.Fatalf("len(residual) = %d, want %d", len(r), 4*n)
	}
}
