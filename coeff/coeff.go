// Package coeff implements the finite-volume coefficient builder: given
// profiles, geometry and the physics-model collaborators, it produces a
// Block1DCoeffs per spec §4.3. The builder is a pure function of its
// inputs — no mutation, no IO — matching the teacher's per-element
// AddToRhs/AddToKb contract (ele/diffusion/diffusion.go) generalized from
// one scalar diffusion equation to the four coupled transport equations.
package coeff

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/plasmacore/tokamak-core/mesh"
	"github.com/plasmacore/tokamak-core/physics"
	"github.com/plasmacore/tokamak-core/profile"
	"github.com/plasmacore/tokamak-core/tensor"
)

// densityFloor is the floor applied to nₑ when computing transientCoeff
// for the temperature equations, to keep collision frequencies physical
// (spec §3).
const densityFloor = 1e19

// EquationCoeffs holds the per-equation FVM coefficient blocks.
type EquationCoeffs struct {
	DFace          tensor.T // [N+1], >= 0
	VFace          tensor.T // [N+1]
	SourceCell     tensor.T // [N], eV·m⁻³·s⁻¹
	SourceMatCell  tensor.T // [N], implicit coupling placeholder (additive)
	TransientCoeff tensor.T // [N], > 0
}

// Block1DCoeffs bundles one EquationCoeffs per equation plus the shared
// geometric factors (cell-center distances are derived from geometry, not
// stored redundantly here).
type Block1DCoeffs struct {
	Ti, Te, Ne, Psi EquationCoeffs
	Geometry        mesh.Geometry
}

// Models bundles the physics-model collaborators a Builder closes over.
// Pedestal/MHD/Neoclassical are optional and advisory (spec §6); nil means
// "not configured".
type Models struct {
	Transport     physics.TransportModel
	Sources       []physics.SourceModel
	Pedestal      physics.PedestalModel
	MHD           physics.MHDModel
	Neoclassical  physics.NeoclassicalModel
}

// Builder is the stateless strategy that produces a Block1DCoeffs from
// (profiles, geometry). All other dependencies — dynamicParams, models —
// are captured at construction time, matching spec §9's "closure-captured
// coefficient callback" re-architecture note: a struct holding
// non-owning references rather than a language-level closure, so the
// same Builder value can be reused across Newton retries without
// reallocating captures.
type Builder struct {
	Models Models
	Params physics.Params
}

// NewBuilder constructs a Builder closing over the given models and
// parameter database.
func NewBuilder(models Models, params physics.Params) Builder {
	return Builder{Models: models, Params: params}
}

// Build is the callback signature accepted by the residual/Newton stack:
// (profiles, geometry) -> Block1DCoeffs. It is a pure function — calling
// it twice with the same arguments yields bit-identical coefficients.
func (b Builder) Build(p profile.Profiles, g mesh.Geometry) (Block1DCoeffs, error) {
	n := g.NCells()
	if p.NCells() != n {
		chk.Panic("coeff: profile has %d cells, geometry has %d", p.NCells(), n)
	}

	var transport physics.TransportCoeffs
	if b.Models.Transport != nil {
		tc, err := b.Models.Transport.Compute(p, g, b.Params)
		if err != nil {
			return Block1DCoeffs{}, chk.Err("coeff: transport model failed: %v", err)
		}
		transport = tc
	} else {
		transport = physics.TransportCoeffs{
			ChiI: tensor.Zeros(n), ChiE: tensor.Zeros(n), D: tensor.Zeros(n), V: tensor.Zeros(n),
		}
	}

	if b.Models.Pedestal != nil {
		pc, err := b.Models.Pedestal.Compute(p, g, b.Params)
		if err != nil {
			return Block1DCoeffs{}, chk.Err("coeff: pedestal model failed: %v", err)
		}
		transport = addTransport(transport, pc)
	}

	sourceSums := newZeroedSums(n)
	for _, sm := range b.Models.Sources {
		terms, err := sm.Compute(p, g, b.Params)
		if err != nil {
			return Block1DCoeffs{}, chk.Err("coeff: source model failed: %v", err)
		}
		accumulate(sourceSums, terms)
	}
	if b.Models.MHD != nil {
		terms, err := b.Models.MHD.Compute(p, g, b.Params)
		if err != nil {
			return Block1DCoeffs{}, chk.Err("coeff: MHD model failed: %v", err)
		}
		accumulate(sourceSums, terms)
	}
	if b.Models.Neoclassical != nil {
		terms, err := b.Models.Neoclassical.Compute(p, g, b.Params)
		if err != nil {
			return Block1DCoeffs{}, chk.Err("coeff: neoclassical model failed: %v", err)
		}
		accumulate(sourceSums, terms)
	}

	g0, g1 := g.G0.Value(), g.G1.Value()
	ratio := make([]float64, n+1)
	for i := range ratio {
		ratio[i] = g1[i] / g0[i]
	}

	neFloored := floorValues(p.Ne.Value(), densityFloor)

	ti := buildEquation(transport.ChiI.Value(), transport.V.Value(), ratio, sourceSums["ti"], neFloored)
	te := buildEquation(transport.ChiE.Value(), transport.V.Value(), ratio, sourceSums["te"], neFloored)
	ne := buildEquation(transport.D.Value(), transport.V.Value(), ratio, sourceSums["ne"], ones(n))
	psi := buildEquation(make([]float64, n), make([]float64, n), ratio, sourceSums["psi"], ones(n))

	return Block1DCoeffs{Ti: ti, Te: te, Ne: ne, Psi: psi, Geometry: g}, nil
}

// buildEquation assembles one EquationCoeffs: dFace via harmonic
// interpolation-to-faces (the default per spec §4.3) and vFace via the
// arithmetic mean of the two neighbouring cells, both scaled by g1/g0;
// sourceCell as given, transientCoeff as given.
func buildEquation(diffCell, convCell, ratio, sourceCell, transientCell []float64) EquationCoeffs {
	n := len(diffCell)
	dFace := make([]float64, n+1)
	vFace := make([]float64, n+1)
	for i := 1; i < n; i++ {
		dFace[i] = harmonicMean(diffCell[i-1], diffCell[i]) * ratio[i]
		vFace[i] = 0.5*(convCell[i-1]+convCell[i]) * ratio[i]
	}
	// boundary faces: one-sided, scaled the same way.
	if n > 0 {
		dFace[0] = diffCell[0] * ratio[0]
		dFace[n] = diffCell[n-1] * ratio[n]
		vFace[0] = convCell[0] * ratio[0]
		vFace[n] = convCell[n-1] * ratio[n]
	}
	for i := range dFace {
		if dFace[i] < 0 {
			chk.Panic("coeff: dFace[%d] = %v must be >= 0", i, dFace[i])
		}
	}
	transient := append([]float64(nil), transientCell...)
	for i, v := range transient {
		if v <= 0 {
			chk.Panic("coeff: transientCoeff[%d] = %v must be > 0", i, v)
		}
	}
	return EquationCoeffs{
		DFace:          tensor.FromValues(dFace, []int{n + 1}),
		VFace:          tensor.FromValues(vFace, []int{n + 1}),
		SourceCell:     tensor.FromValues(append([]float64(nil), sourceCell...), []int{n}),
		SourceMatCell:  tensor.Zeros(n),
		TransientCoeff: tensor.FromValues(transient, []int{n}),
	}
}

// harmonicMean avoids over-estimating diffusion across sharp gradients
// (spec §4.3's stated rationale for the default harmonic interpolation).
func harmonicMean(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

func addTransport(a, b physics.TransportCoeffs) physics.TransportCoeffs {
	sum := func(x, y tensor.T) tensor.T {
		xv, yv := x.Value(), y.Value()
		out := make([]float64, len(xv))
		for i := range out {
			out[i] = xv[i] + yv[i]
		}
		return tensor.FromValues(out, x.Shape())
	}
	return physics.TransportCoeffs{
		ChiI: sum(a.ChiI, b.ChiI),
		ChiE: sum(a.ChiE, b.ChiE),
		D:    sum(a.D, b.D),
		V:    sum(a.V, b.V),
	}
}

// accumulate adds each term's eV·m⁻³·s⁻¹-converted values into the
// appropriate equation's running sum, keyed by term name prefix
// ("ti:", "te:", "ne:", "psi:"). Any MW/m³ contribution is converted at
// this boundary — the builder never leaves mixed units (spec §4.3).
func accumulate(sums map[string][]float64, terms []physics.SourceTerm) {
	for _, t := range terms {
		converted := physics.ConvertToEVPerM3PerS(t)
		key := equationKey(t.Name)
		dst := sums[key]
		src := converted.Values.Value()
		for i := range dst {
			dst[i] += src[i]
		}
	}
}

// equationKey maps a source-term name to the equation it feeds. Names are
// expected to be prefixed, e.g. "ti:nbi-heating"; an unprefixed name
// defaults to the ion-temperature equation, matching the most common case
// (auxiliary heating).
func equationKey(name string) string {
	for _, k := range []string{"ti", "te", "ne", "psi"} {
		if len(name) > len(k)+1 && name[:len(k)+1] == k+":" {
			return k
		}
	}
	return "ti"
}

func floorValues(v []float64, floor float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if x < floor {
			out[i] = floor
		} else {
			out[i] = x
		}
	}
	return out
}

// newZeroedSums allocates one running-sum buffer per equation and resets
// each to zero via la.VecFill, matching the teacher's reset-an-existing-
// buffer pattern (fem/e_up.go's la.VecFill(o.P.ρl_ex, 0)) for accumulators
// that accumulate() subsequently mutates in place.
func newZeroedSums(n int) map[string][]float64 {
	sums := map[string][]float64{
		"ti": make([]float64, n), "te": make([]float64, n), "ne": make([]float64, n), "psi": make([]float64, n),
	}
	for _, buf := range sums {
		la.VecFill(buf, 0)
	}
	return sums
}

func ones(n int) []float64 {
	out := make([]float64, n)
	la.VecFill(out, 1)
	return out
}
