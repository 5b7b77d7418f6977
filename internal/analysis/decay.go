package analysis

import "math"

// DecayWeight computes exp(-age/tau).
func DecayWeight(age float64, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-age / tau)
}

// DecayWeightedMean averages a period series with newer periods weighted
// exponentially heavier. values are oldest first; tau is in periods.
func DecayWeightedMean(values []float64, tau float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	norm := 0.0
	last := len(values) - 1
	for i, v := range values {
		w := DecayWeight(float64(last-i), tau)
		sum += w * v
		norm += w
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
