package accel

import "github.com/relabs-tech/inertial_gestures/internal/imu"

// Reading is the per-tick output of the pipeline. All four vectors have the
// calibration offset applied.
type Reading struct {
	Raw          imu.Vector3D `json:"raw"`
	LowPass      imu.Vector3D `json:"low_pass"`
	FastFiltered imu.Vector3D `json:"fast_filtered"`
	Averaged     imu.Vector3D `json:"averaged"`

	// Stable mirrors Pipeline.IsDeviceStable after this tick.
	Stable bool `json:"stable"`
}

// CalibrationStore persists the zero-g calibration offset.
type CalibrationStore interface {
	Load() (imu.Vector3D, error)
	Save(offset imu.Vector3D) error
}
