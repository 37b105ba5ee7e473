// SPDX-License-Identifier: MIT
package analysis

import "math"

// DefaultAmplitudeGain lifts typical program material, whose RMS sits well
// below full scale, into a useful part of the [0, 1] range.
const DefaultAmplitudeGain = 5.0

// Amplitude returns the RMS of samples scaled by gain and clamped to [0, 1].
// An empty buffer has amplitude 0.
func Amplitude(samples []float32, gain float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	return clamp01(math.Sqrt(sum/float64(len(samples))) * gain)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
