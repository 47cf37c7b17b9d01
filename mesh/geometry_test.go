package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCircularShapes(t *testing.T) {
	g := NewCircular(3, 1, 2.5, 25, 1.0, 3.0)
	require.Equal(t, 25, g.NCells())
	require.Equal(t, 26, g.G0.Len())
	require.Equal(t, 26, g.G1.Len())

	for i := 0; i < g.NCells(); i++ {
		assert.Greaterf(t, g.Volume.At(i), 0.0, "volume[%d] not positive", i)
		if i > 0 {
			assert.Greaterf(t, g.Radii.At(i), g.Radii.At(i-1), "radii not strictly increasing at %d", i)
		}
	}
}

// TestFaceExpansionFactorsAreUniform pins la.VecFill(g2/g3, 1)'s contract:
// every face entry of g2/g3 is exactly 1 for a no-Shafranov-shift geometry.
func TestFaceExpansionFactorsAreUniform(t *testing.T) {
	g := NewCircular(3, 1, 2.5, 12, 1.0, 3.0)
	g2, g3 := g.G2.Value(), g.G3.Value()
	for i := range g2 {
		assert.Equalf(t, 1.0, g2[i], "g2[%d]", i)
		assert.Equalf(t, 1.0, g3[i], "g3[%d]", i)
	}
}

// TestSafetyFactorProfile table-drives a handful of (q0, qEdge, n) cases
// checking the monotonic core-to-edge q(r) shape the parabolic model must
// preserve regardless of grid resolution.
func TestSafetyFactorProfile(t *testing.T) {
	cases := []struct {
		name      string
		n         int
		q0, qEdge float64
	}{
		{"coarse grid", 10, 1.0, 3.0},
		{"fine grid", 40, 1.0, 3.0},
		{"narrow q range", 10, 1.0, 1.5},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewCircular(3, 1, 2.5, c.n, c.q0, c.qEdge)
			q := g.SafetyFactor.Value()
			assert.Less(t, q[0], q[len(q)-1], "q(r) should increase from core to edge for q0<qEdge")
			assert.InDelta(t, c.q0, q[0], 0.1, "q[0] should be close to q0")
		})
	}
}

func TestDRhoHat(t *testing.T) {
	g := NewCircular(3, 1, 2.5, 20, 1.0, 3.0)
	assert.Equal(t, 0.05, g.DRhoHat())
}
