// Package residual implements the θ-method nonlinear residual for the
// coupled four-equation system, generalizing the teacher's time-
// integration coefficient object (fem/dyncoefs.go's DynCoefs) from
// Newmark/HHT structural dynamics down to the plain θ-method this system
// needs (there is no second time-derivative here).
package residual

import (
	"github.com/cpmech/gosl/chk"
	"github.com/plasmacore/tokamak-core/bc"
	"github.com/plasmacore/tokamak-core/coeff"
	"github.com/plasmacore/tokamak-core/fvm"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/profile"
)

// ThetaCoefs holds the θ-method coefficient, mirroring fem/dyncoefs.go's
// DynCoefs.CalcBetas: β1 = 1/(θ·h) is the only coefficient this system's
// first-order-in-time equations need.
type ThetaCoefs struct {
	Theta float64
	dt    float64
	beta1 float64
}

// NewThetaCoefs validates θ∈[0,1] (θ=0 explicit is handled by the caller
// weighting f(xⁿ) alone; the coefficient object itself only ever divides
// by θ when θ>0) and dt>0, mirroring DynCoefs.Init's validation-panic
// style.
func NewThetaCoefs(theta, dt float64) ThetaCoefs {
	if theta < 0 || theta > 1 {
		chk.Panic("residual: θ-method requires 0 <= θ <= 1.0 (θ = %v is incorrect)", theta)
	}
	if dt <= 0 {
		chk.Panic("residual: dt must be positive, got %v", dt)
	}
	tc := ThetaCoefs{Theta: theta, dt: dt}
	if theta > 0 {
		tc.beta1 = 1.0 / (theta * dt)
	}
	return tc
}

// BoundaryConditions bundles the core/edge BC pair for each of the four
// variables.
type BoundaryConditions struct {
	Ti, Te, Ne, Psi bc.EdgePair
}

// Evaluator assembles R(xⁿ,xⁿ⁺¹) for the coupled system given a
// coefficient builder and the boundary conditions in force for this step.
// BCs are applied inside f(·) at every call — never materialized into the
// residual separately (spec §4.5). Cache, if non-nil, memoizes
// Builder.Build by (profiles, geometry) content (spec §5): within one
// Newton solve, xⁿ never changes across iterations or line-search trials,
// so every call's "blockN" half of the residual is a guaranteed cache hit
// after the first.
type Evaluator struct {
	Builder coeff.Builder
	BCs     BoundaryConditions
	Cache   *coeff.Cache
}

// build resolves one (profiles, geometry) -> Block1DCoeffs call through
// the cache when present, falling straight through to the builder
// otherwise.
func (e Evaluator) build(p profile.Profiles, g mesh.Geometry) (coeff.Block1DCoeffs, error) {
	if e.Cache != nil {
		return e.Cache.Build(p, g, e.Builder)
	}
	return e.Builder.Build(p, g)
}

// spatialOperator evaluates f(x) for all four equations given a
// Block1DCoeffs built at that state, returning one []float64 per
// equation.
func spatialOperator(block coeff.Block1DCoeffs, p profile.Profiles, bcs BoundaryConditions, dRhoHat float64) (ti, te, ne, psi []float64) {
	ti = fvm.SpatialOperator(p.Ti.Value(), block.Ti.DFace.Value(), block.Ti.VFace.Value(), block.Ti.SourceCell.Value(), dRhoHat, bcs.Ti.Core, bcs.Ti.Edge)
	te = fvm.SpatialOperator(p.Te.Value(), block.Te.DFace.Value(), block.Te.VFace.Value(), block.Te.SourceCell.Value(), dRhoHat, bcs.Te.Core, bcs.Te.Edge)
	ne = fvm.SpatialOperator(p.Ne.Value(), block.Ne.DFace.Value(), block.Ne.VFace.Value(), block.Ne.SourceCell.Value(), dRhoHat, bcs.Ne.Core, bcs.Ne.Edge)
	psi = fvm.SpatialOperator(p.Psi.Value(), block.Psi.DFace.Value(), block.Psi.VFace.Value(), block.Psi.SourceCell.Value(), dRhoHat, bcs.Psi.Core, bcs.Psi.Edge)
	return
}

// Residual computes R(xⁿ,xⁿ⁺¹) = transientCoeff·(xⁿ⁺¹−xⁿ)/dt −
// θ·f(xⁿ⁺¹) − (1−θ)·f(xⁿ), concatenated in layout order (Ti, Te, Ne, Psi).
func (e Evaluator) Residual(xn, xnp1 profile.Profiles, g mesh.Geometry, tc ThetaCoefs) ([]float64, error) {
	n := xnp1.NCells()
	dRho := g.DRhoHat()

	blockNp1, err := e.build(xnp1, g)
	if err != nil {
		return nil, err
	}
	tiNp1, teNp1, neNp1, psiNp1 := spatialOperator(blockNp1, xnp1, e.BCs, dRho)

	var tiN, teN, neN, psiN []float64
	if tc.Theta < 1 {
		blockN, err := e.build(xn, g)
		if err != nil {
			return nil, err
		}
		tiN, teN, neN, psiN = spatialOperator(blockN, xn, e.BCs, dRho)
	}

	out := make([]float64, 4*n)
	assembleOne(out[0*n:1*n], xn.Ti.Value(), xnp1.Ti.Value(), blockNp1.Ti.TransientCoeff.Value(), tiNp1, tiN, tc)
	assembleOne(out[1*n:2*n], xn.Te.Value(), xnp1.Te.Value(), blockNp1.Te.TransientCoeff.Value(), teNp1, teN, tc)
	assembleOne(out[2*n:3*n], xn.Ne.Value(), xnp1.Ne.Value(), blockNp1.Ne.TransientCoeff.Value(), neNp1, neN, tc)
	assembleOne(out[3*n:4*n], xn.Psi.Value(), xnp1.Psi.Value(), blockNp1.Psi.TransientCoeff.Value(), psiNp1, psiN, tc)
	return out, nil
}

func assembleOne(dst []float64, xn, xnp1, transient, fNp1, fN []float64, tc ThetaCoefs) {
	for i := range dst {
		term := transient[i] * (xnp1[i] - xn[i]) / tc.dt
		term -= tc.Theta * fNp1[i]
		if tc.Theta < 1 {
			term -= (1 - tc.Theta) * fN[i]
		}
		dst[i] = term
	}
}
