// Package profile implements the core-profile record {Ti, Te, Ne, Psi} and
// the packed 4·N flattened-state representation the residual/Jacobian/
// Newton stack operates on.
package profile

import (
	"github.com/cpmech/gosl/chk"
	"github.com/plasmacore/tokamak-core/tensor"
)

// Profiles is the immutable per-variable cell-centered state. Units are
// fixed (eV, eV, m⁻³, Wb) and never rescaled internally — see spec §3.
type Profiles struct {
	Ti, Te, Ne, Psi tensor.T
}

// NCells returns N, validating that all four profiles agree.
func (p Profiles) NCells() int {
	n := p.Ti.Len()
	if p.Te.Len() != n || p.Ne.Len() != n || p.Psi.Len() != n {
		chk.Panic("profile: cell-count mismatch Ti=%d Te=%d Ne=%d Psi=%d", p.Ti.Len(), p.Te.Len(), p.Ne.Len(), p.Psi.Len())
	}
	return n
}

// Layout fixes the four contiguous ranges within a flattened 4N vector.
type Layout struct {
	N        int
	TiRange  [2]int
	TeRange  [2]int
	NeRange  [2]int
	PsiRange [2]int
}

// NewLayout builds the standard layout: ti, te, ne, psi each occupy a
// contiguous N-length block in that order.
func NewLayout(n int) Layout {
	return Layout{
		N:        n,
		TiRange:  [2]int{0, n},
		TeRange:  [2]int{n, 2 * n},
		NeRange:  [2]int{2 * n, 3 * n},
		PsiRange: [2]int{3 * n, 4 * n},
	}
}

// State is the packed 4N-dimensional vector plus its layout descriptor.
type State struct {
	Values tensor.T
	Layout Layout
}

// Flatten packs Profiles into a State, validating that all four cell
// counts agree (spec §3: "Construction validates all four cell counts
// agree").
func Flatten(p Profiles) State {
	n := p.NCells()
	buf := make([]float64, 4*n)
	copy(buf[0:n], p.Ti.Value())
	copy(buf[n:2*n], p.Te.Value())
	copy(buf[2*n:3*n], p.Ne.Value())
	copy(buf[3*n:4*n], p.Psi.Value())
	return State{
		Values: tensor.FromValues(buf, []int{4 * n}),
		Layout: NewLayout(n),
	}
}

// Unflatten is the inverse of Flatten: flatten ∘ unflatten = id on valid
// flattened states (spec §8 round-trip law).
func Unflatten(s State) Profiles {
	n := s.Layout.N
	if s.Values.Len() != 4*n {
		chk.Panic("profile: flattened state has %d values, layout expects 4*%d=%d", s.Values.Len(), n, 4*n)
	}
	v := s.Values.Value()
	return Profiles{
		Ti:  tensor.FromValues(append([]float64(nil), v[s.Layout.TiRange[0]:s.Layout.TiRange[1]]...), []int{n}),
		Te:  tensor.FromValues(append([]float64(nil), v[s.Layout.TeRange[0]:s.Layout.TeRange[1]]...), []int{n}),
		Ne:  tensor.FromValues(append([]float64(nil), v[s.Layout.NeRange[0]:s.Layout.NeRange[1]]...), []int{n}),
		Psi: tensor.FromValues(append([]float64(nil), v[s.Layout.PsiRange[0]:s.Layout.PsiRange[1]]...), []int{n}),
	}
}

// Slice returns the sub-slice of a flattened values buffer for one of the
// four variable ranges, without copying.
func (l Layout) Slice(values []float64, rng [2]int) []float64 {
	return values[rng[0]:rng[1]]
}
