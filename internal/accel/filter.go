package accel

import (
	"math"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// SampleFilter holds the coefficients of the two per-axis exponential
// filters. It keeps no history; callers pass the previous output.
type SampleFilter struct {
	Coefficient       float64
	NoiseMaxAmplitude float64
}

// LowPass computes prior + k·(input − prior).
func LowPass(input, prior, k float64) float64 {
	return prior + k*(input-prior)
}

// FastLowAmplitudeNoise smooths small jitter like LowPass but lets any jump
// larger than maxAmplitude through verbatim, so real motion has no lag.
func FastLowAmplitudeNoise(input, prior, k, maxAmplitude float64) float64 {
	if math.Abs(input-prior) <= maxAmplitude {
		return prior + k*(input-prior)
	}
	return input
}

// LowPass applies the low-pass filter to each axis independently.
func (f SampleFilter) LowPass(raw, prior imu.Vector3D) imu.Vector3D {
	return imu.New(
		LowPass(raw.X(), prior.X(), f.Coefficient),
		LowPass(raw.Y(), prior.Y(), f.Coefficient),
		LowPass(raw.Z(), prior.Z(), f.Coefficient),
	)
}

// FastFiltered applies the low-amplitude noise filter to each axis
// independently.
func (f SampleFilter) FastFiltered(raw, prior imu.Vector3D) imu.Vector3D {
	return imu.New(
		FastLowAmplitudeNoise(raw.X(), prior.X(), f.Coefficient, f.NoiseMaxAmplitude),
		FastLowAmplitudeNoise(raw.Y(), prior.Y(), f.Coefficient, f.NoiseMaxAmplitude),
		FastLowAmplitudeNoise(raw.Z(), prior.Z(), f.Coefficient, f.NoiseMaxAmplitude),
	)
}
