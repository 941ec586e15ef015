package accel

import (
	"fmt"
	"math"
)

// Settings are the tunable constants of the accelerometer pipeline.
type Settings struct {
	// SamplesCount is the size of the averaging window and the number of
	// consecutive steady ticks needed before the device counts as stable.
	SamplesCount int `yaml:"samples_count"`

	// LowPassCoefficient is the smoothing factor k of both exponential filters.
	LowPassCoefficient float64 `yaml:"low_pass_coefficient"`

	// NoiseMaxAmplitude is the largest per-axis jump (g) the fast filter
	// still smooths; bigger jumps pass through unfiltered.
	NoiseMaxAmplitude float64 `yaml:"noise_max_amplitude"`

	// StabilityTiltDeltaDeg bounds the deviation of a sample from the
	// running average, as an inclination in degrees.
	StabilityTiltDeltaDeg float64 `yaml:"stability_tilt_delta_deg"`

	// CalibrationTiltDeg is the maximum tilt from level that still allows
	// calibration.
	CalibrationTiltDeg float64 `yaml:"calibration_tilt_deg"`
}

// DefaultSettings returns the reference tuning for a 50 Hz feed.
func DefaultSettings() Settings {
	return Settings{
		SamplesCount:          25,
		LowPassCoefficient:    0.1,
		NoiseMaxAmplitude:     0.05,
		StabilityTiltDeltaDeg: 0.5,
		CalibrationTiltDeg:    20,
	}
}

// Validate rejects settings the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.SamplesCount <= 0 {
		return fmt.Errorf("samples_count must be positive, got %d", s.SamplesCount)
	}
	if s.LowPassCoefficient <= 0 || s.LowPassCoefficient > 1 {
		return fmt.Errorf("low_pass_coefficient must be in (0, 1], got %v", s.LowPassCoefficient)
	}
	if s.NoiseMaxAmplitude < 0 {
		return fmt.Errorf("noise_max_amplitude must not be negative, got %v", s.NoiseMaxAmplitude)
	}
	if s.StabilityTiltDeltaDeg <= 0 || s.StabilityTiltDeltaDeg >= 90 {
		return fmt.Errorf("stability_tilt_delta_deg must be in (0, 90), got %v", s.StabilityTiltDeltaDeg)
	}
	if s.CalibrationTiltDeg <= 0 || s.CalibrationTiltDeg >= 90 {
		return fmt.Errorf("calibration_tilt_deg must be in (0, 90), got %v", s.CalibrationTiltDeg)
	}
	return nil
}

// MaxStabilityDeltaOffset is sin(StabilityTiltDeltaDeg), ≈0.00873 g by default.
func (s Settings) MaxStabilityDeltaOffset() float64 {
	return math.Sin(s.StabilityTiltDeltaDeg * math.Pi / 180)
}

// MaxCalibrationTilt is sin(CalibrationTiltDeg), ≈0.342 g by default.
func (s Settings) MaxCalibrationTilt() float64 {
	return math.Sin(s.CalibrationTiltDeg * math.Pi / 180)
}
