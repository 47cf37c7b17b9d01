package profile

import (
	"testing"

	"github.com/plasmacore/tokamak-core/tensor"
)

func sampleProfiles(n int) Profiles {
	ti := make([]float64, n)
	te := make([]float64, n)
	ne := make([]float64, n)
	psi := make([]float64, n)
	for i := 0; i < n; i++ {
		ti[i] = 1000 + float64(i)
		te[i] = 900 + float64(i)
		ne[i] = 1e19 + float64(i)
		psi[i] = 0.1 * float64(i)
	}
	return Profiles{
		Ti:  tensor.FromValues(ti, []int{n}),
		Te:  tensor.FromValues(te, []int{n}),
		Ne:  tensor.FromValues(ne, []int{n}),
		Psi: tensor.FromValues(psi, []int{n}),
	}
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	p := sampleProfiles(5)
	s := Flatten(p)
	if s.Values.Len() != 20 {
		t.Fatalf("flattened length = %d, want 20", s.Values.Len())
	}
	got := Unflatten(s)
	for i := 0; i < 5; i++ {
		if got.Ti.At(i) != p.Ti.At(i) || got.Te.At(i) != p.Te.At(i) ||
			got.Ne.At(i) != p.Ne.At(i) || got.Psi.At(i) != p.Psi.At(i) {
			t.Fatalf("round trip mismatch at cell %d", i)
		}
	}
}

func TestLayoutRanges(t *testing.T) {
	l := NewLayout(4)
	if l.TiRange != [2]int{0, 4} || l.TeRange != [2]int{4, 8} ||
		l.NeRange != [2]int{8, 12} || l.PsiRange != [2]int{12, 16} {
		t.Fatalf("unexpected layout: %+v", l)
	}
}

func TestNCellsMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched cell counts")
		}
	}()
	p := Profiles{
		Ti: tensor.Zeros(3),
		Te: tensor.Zeros(4),
	}
	p.NCells()
}
