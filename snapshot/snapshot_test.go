package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSimulationSnapshotIsPlainData table-drives a few profile sizes to
// pin that SerializableProfiles carries plain per-cell slices with no
// hidden aliasing/shape assumption.
func TestSimulationSnapshotIsPlainData(t *testing.T) {
	cases := []struct {
		name     string
		profiles SerializableProfiles
		wantN    int
	}{
		{
			name: "two cells",
			profiles: SerializableProfiles{
				Ti:  []float64{100, 200},
				Te:  []float64{110, 210},
				Ne:  []float64{1e20, 1e20},
				Psi: []float64{0, 0.1},
			},
			wantN: 2,
		},
		{
			name: "single cell",
			profiles: SerializableProfiles{
				Ti:  []float64{1000},
				Te:  []float64{1000},
				Ne:  []float64{5e19},
				Psi: []float64{0},
			},
			wantN: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			snap := SimulationSnapshot{Time: 1.0, Profiles: c.profiles}
			assert.Len(t, snap.Profiles.Ti, c.wantN)
			assert.Len(t, snap.Profiles.Te, c.wantN)
			assert.Len(t, snap.Profiles.Ne, c.wantN)
			assert.Len(t, snap.Profiles.Psi, c.wantN)
		})
	}
}

func TestSimulationResultStatistics(t *testing.T) {
	res := SimulationResult{
		Statistics: Statistics{AcceptedSteps: 10, RetriedSteps: 2, FinalTime: 0.05},
	}
	assert.Equal(t, 10, res.Statistics.AcceptedSteps)
	assert.Equal(t, 2, res.Statistics.RetriedSteps)
	assert.InDelta(t, 0.05, res.Statistics.FinalTime, 1e-12)
}
