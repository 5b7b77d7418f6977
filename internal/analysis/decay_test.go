package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecayWeight(t *testing.T) {
	tests := []struct {
		name     string
		age      float64
		tau      float64
		expected float64
	}{
		{"fresh", 0, 3, 1.0},
		{"one tau", 3, 3, 0.36787944117144233},
		{"two tau", 6, 3, 0.1353352832366127},
		{"zero tau", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecayWeight(tt.age, tt.tau), 1e-12)
		})
	}
}

func TestDecayWeightedMean(t *testing.T) {
	assert.Equal(t, 0.0, DecayWeightedMean(nil, 3))

	// Constant series is invariant under reweighting.
	assert.InDelta(t, 5.0, DecayWeightedMean([]float64{5, 5, 5, 5}, 3), 1e-12)

	// The newest period dominates.
	rising := DecayWeightedMean([]float64{0, 0, 0, 10}, 3)
	falling := DecayWeightedMean([]float64{10, 0, 0, 0}, 3)
	assert.Greater(t, rising, falling)
	assert.Greater(t, rising, 2.5)
}
