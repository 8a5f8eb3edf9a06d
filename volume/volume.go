package volume

import (
	"math"
)

// MinDB is the floor of the decibel scale. Anything quieter is treated as silence.
const MinDB = -70.0

// MaxDB is the loudest level a cue may request as an output or starting volume.
const MaxDB = 24.0

// AmplitudeToDecibels converts a linear amplitude into decibels.
// The amplitude is clamped to [DecibelsToAmplitude(MinDB), 1] first so that
// silence maps to MinDB rather than -Inf.
func AmplitudeToDecibels(amp float64) float64 {
	amp = Clamp(amp, DecibelsToAmplitude(MinDB), 1)
	return 20 * math.Log10(amp)
}

// DecibelsToAmplitude converts decibels into a linear amplitude.
func DecibelsToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates linearly between a and b. t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
