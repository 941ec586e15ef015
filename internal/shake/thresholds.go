package shake

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// Thresholds are the tunable heuristics of the detector. Magnitudes are in g,
// counts are in samples.
type Thresholds struct {
	// A sample is a shake sample when its magnitude differs from the still
	// reference's magnitude by more than this.
	ShakeMagnitudeThreshold float64 `yaml:"shake_magnitude_threshold"`

	// A buffered still sample contributes to a new still reference only when
	// its magnitude is this close to the current reference's magnitude.
	StillMagnitudeThreshold float64 `yaml:"still_magnitude_threshold"`

	// Gravitation-removed samples weaker than this are kept in the shake
	// signal but not counted in the histogram.
	WeakMagnitudeThreshold float64 `yaml:"weak_magnitude_threshold"`

	// Consecutive non-shake samples needed to leave the shaking state.
	StillCounterThreshold int `yaml:"still_counter_threshold"`

	MinimumStillVectorsNeededForAverage int `yaml:"minimum_still_vectors_needed_for_average"`
	MaximumStillVectorsNeededForAverage int `yaml:"maximum_still_vectors_needed_for_average"`
	MinimumShakeVectorsNeededForShake   int `yaml:"minimum_shake_vectors_needed_for_shake"`
	MinimumRequiredMovesForShake        int `yaml:"minimum_required_moves_for_shake"`

	// MaximumShakeVectors bounds the shake signal during a long shake that
	// never qualifies. The oldest samples are dropped first.
	MaximumShakeVectors int `yaml:"maximum_shake_vectors"`

	// InitialStillReference is the gravity estimate used until enough still
	// samples have been seen, as [x, y, z].
	InitialStillReference []float64 `yaml:"initial_still_reference"`
}

// DefaultThresholds returns the reference tuning for a 50 Hz feed.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ShakeMagnitudeThreshold:             0.2,
		StillMagnitudeThreshold:             0.02,
		WeakMagnitudeThreshold:              0.2,
		StillCounterThreshold:               20,
		MinimumStillVectorsNeededForAverage: 5,
		MaximumStillVectorsNeededForAverage: 20,
		MinimumShakeVectorsNeededForShake:   10,
		MinimumRequiredMovesForShake:        3,
		MaximumShakeVectors:                 250,
		InitialStillReference:               []float64{0, -1, 0},
	}
}

// Validate rejects thresholds the detector cannot run with.
func (t Thresholds) Validate() error {
	var errs []error
	if t.ShakeMagnitudeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("shake_magnitude_threshold must be positive, got %v", t.ShakeMagnitudeThreshold))
	}
	if t.StillMagnitudeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("still_magnitude_threshold must be positive, got %v", t.StillMagnitudeThreshold))
	}
	if t.WeakMagnitudeThreshold < 0 {
		errs = append(errs, fmt.Errorf("weak_magnitude_threshold must not be negative, got %v", t.WeakMagnitudeThreshold))
	}
	if t.StillCounterThreshold <= 0 {
		errs = append(errs, fmt.Errorf("still_counter_threshold must be positive, got %d", t.StillCounterThreshold))
	}
	if t.MinimumStillVectorsNeededForAverage <= 0 {
		errs = append(errs, fmt.Errorf("minimum_still_vectors_needed_for_average must be positive, got %d", t.MinimumStillVectorsNeededForAverage))
	}
	if t.MaximumStillVectorsNeededForAverage < t.MinimumStillVectorsNeededForAverage {
		errs = append(errs, fmt.Errorf("maximum_still_vectors_needed_for_average (%d) below minimum (%d)",
			t.MaximumStillVectorsNeededForAverage, t.MinimumStillVectorsNeededForAverage))
	}
	if t.MinimumShakeVectorsNeededForShake <= 0 {
		errs = append(errs, fmt.Errorf("minimum_shake_vectors_needed_for_shake must be positive, got %d", t.MinimumShakeVectorsNeededForShake))
	}
	if t.MinimumRequiredMovesForShake < 0 {
		errs = append(errs, fmt.Errorf("minimum_required_moves_for_shake must not be negative, got %d", t.MinimumRequiredMovesForShake))
	}
	if t.MaximumShakeVectors < t.MinimumShakeVectorsNeededForShake || t.MaximumShakeVectors <= t.StillCounterThreshold {
		errs = append(errs, fmt.Errorf("maximum_shake_vectors (%d) must be at least minimum_shake_vectors_needed_for_shake (%d) and above still_counter_threshold (%d)",
			t.MaximumShakeVectors, t.MinimumShakeVectorsNeededForShake, t.StillCounterThreshold))
	}
	if len(t.InitialStillReference) != 3 {
		errs = append(errs, fmt.Errorf("initial_still_reference needs 3 components, got %d", len(t.InitialStillReference)))
	}
	return errors.Join(errs...)
}

func (t Thresholds) initialStillReference() imu.Vector3D {
	if len(t.InitialStillReference) != 3 {
		return imu.New(0, -1, 0)
	}
	return imu.New(t.InitialStillReference[0], t.InitialStillReference[1], t.InitialStillReference[2])
}
