// Package mesh implements the radial grid and plasma-equilibrium geometry
// that the transport equations are discretized on: a uniform 1-D mesh in
// normalized toroidal flux coordinate ρ̂ ∈ [0,1], plus the geometric
// coefficients g0..g3 every face-based flux computation needs.
package mesh

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/plasmacore/tokamak-core/tensor"
)

// Geometry holds the scalar machine parameters and the cell/face arrays
// derived from them. Face arrays have N+1 entries (N cells ⇒ N+1 faces);
// cell arrays have N entries.
type Geometry struct {
	Rmajor, Rminor, Bt float64

	Volume       tensor.T // [N] cell volumes
	G0, G1, G2, G3 tensor.T // [N+1] face geometric factors
	Radii        tensor.T // [N] cell-center minor radii
	SafetyFactor tensor.T // [N] q(r)
	Shear        tensor.T // [N] magnetic shear s(r)
}

// NCells returns the number of cells implied by the face-grid length.
func (g Geometry) NCells() int { return g.G0.Len() - 1 }

// DRhoHat returns the uniform normalized-flux cell width, 1/N.
func (g Geometry) DRhoHat() float64 { return 1.0 / float64(g.NCells()) }

// validate enforces the geometry invariants from the data model: nCells
// derived consistently from g0, strictly increasing radii, positive
// volumes.
func (g Geometry) validate() {
	n := g.NCells()
	if n <= 0 {
		chk.Panic("mesh: geometry must have at least one cell, got nCells=%d", n)
	}
	if g.Volume.Len() != n {
		chk.Panic("mesh: volume has %d entries, want nCells=%d", g.Volume.Len(), n)
	}
	if g.Radii.Len() != n || g.SafetyFactor.Len() != n || g.Shear.Len() != n {
		chk.Panic("mesh: cell arrays (radii/safetyFactor/shear) must have nCells=%d entries", n)
	}
	for i := 0; i < n; i++ {
		if g.Volume.At(i) <= 0 {
			chk.Panic("mesh: volume[%d] = %v must be positive", i, g.Volume.At(i))
		}
		if i > 0 && g.Radii.At(i) <= g.Radii.At(i-1) {
			chk.Panic("mesh: radii must be strictly increasing, radii[%d]=%v <= radii[%d]=%v", i, g.Radii.At(i), i-1, g.Radii.At(i-1))
		}
	}
	for _, f := range []tensor.T{g.G0, g.G1, g.G2, g.G3} {
		if f.Len() != n+1 {
			chk.Panic("mesh: face array must have nCells+1=%d entries, got %d", n+1, f.Len())
		}
	}
}

// NewCircular builds a circular-cross-section equilibrium geometry: given
// the machine parameters and a parabolic safety-factor profile
// q(r) = q0 + (qEdge-q0)*(r/a)^2, it derives g0..g3, cell volumes, radii,
// and the vectorized shear s(r) = (r/q)(dq/dr).
//
// g0 is the flux-surface-averaged |∇ρ̂|² surface-area factor and g1 is its
// companion volume-derivative factor; their ratio g1/g0 is what the
// coefficient builder (package coeff) uses to convert a diffusivity into a
// face transport coefficient. For a circular cross-section with no
// Shafranov shift, both reduce to simple functions of minor radius; richer
// equilibria would replace NewCircular with a different factory without
// changing any downstream package.
func NewCircular(rmajor, rminor, bt float64, n int, q0, qEdge float64) Geometry {
	if n < 1 {
		chk.Panic("mesh: NewCircular requires n >= 1, got n=%d", n)
	}
	if rmajor <= 0 || rminor <= 0 || bt == 0 {
		chk.Panic("mesh: NewCircular requires Rmajor>0, rminor>0, Bt!=0 (got %v, %v, %v)", rmajor, rminor, bt)
	}

	dRho := 1.0 / float64(n)

	cellRho := make([]float64, n)
	for i := 0; i < n; i++ {
		cellRho[i] = (float64(i) + 0.5) * dRho
	}
	faceRho := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		faceRho[i] = float64(i) * dRho
	}

	radii := make([]float64, n)
	volume := make([]float64, n)
	for i := 0; i < n; i++ {
		r := cellRho[i] * rminor
		radii[i] = r
		// thin toroidal shell between the cell's two faces:
		// 2π²Rmajor * (rOut² - rIn²) ≈ 4π²Rmajor * r * dr (torus volume element).
		rIn := faceRho[i] * rminor
		rOut := faceRho[i+1] * rminor
		volume[i] = 2 * math.Pi * math.Pi * rmajor * (rOut*rOut - rIn*rIn)
	}

	g0 := make([]float64, n+1)
	g1 := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		r := faceRho[i] * rminor
		// g0: flux-surface area factor, ~ r (circular, large-aspect-ratio).
		g0[i] = math.Max(r, 1e-12)
		// g1: volume-derivative factor dV/dρ̂, proportional to r as well
		// for this circular model; kept distinct from g0 so the builder's
		// g1/g0 ratio degenerates to something other than the trivial 1.
		g1[i] = 2 * math.Pi * rmajor * math.Max(r, 1e-12)
	}
	// g2, g3: flux-expansion factors, uniformly unity for a geometry with
	// no Shafranov shift.
	g2 := make([]float64, n+1)
	g3 := make([]float64, n+1)
	la.VecFill(g2, 1)
	la.VecFill(g3, 1)

	q := make([]float64, n)
	for i := 0; i < n; i++ {
		x := cellRho[i]
		q[i] = q0 + (qEdge-q0)*x*x
	}

	shear := centralDifferenceShear(cellRho, q, radii)

	g := Geometry{
		Rmajor: rmajor, Rminor: rminor, Bt: bt,
		Volume:       tensor.FromValues(volume, []int{n}),
		G0:           tensor.FromValues(g0, []int{n + 1}),
		G1:           tensor.FromValues(g1, []int{n + 1}),
		G2:           tensor.FromValues(g2, []int{n + 1}),
		G3:           tensor.FromValues(g3, []int{n + 1}),
		Radii:        tensor.FromValues(radii, []int{n}),
		SafetyFactor: tensor.FromValues(q, []int{n}),
		Shear:        tensor.FromValues(shear, []int{n}),
	}
	g.validate()
	return g
}

// centralDifferenceShear computes s(r) = (r/q) dq/dr vectorially: central
// differences on interior cells, one-sided differences at the two
// boundary cells.
func centralDifferenceShear(rhoHat, q, radii []float64) []float64 {
	n := len(q)
	dqdr := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case n == 1:
			dqdr[i] = 0
		case i == 0:
			dqdr[i] = (q[1] - q[0]) / (radii[1] - radii[0])
		case i == n-1:
			dqdr[i] = (q[n-1] - q[n-2]) / (radii[n-1] - radii[n-2])
		default:
			dqdr[i] = (q[i+1] - q[i-1]) / (radii[i+1] - radii[i-1])
		}
	}
	shear := make([]float64, n)
	for i := 0; i < n; i++ {
		if q[i] == 0 {
			shear[i] = 0
			continue
		}
		shear[i] = (radii[i] / q[i]) * dqdr[i]
	}
	return shear
}
