package app

import (
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/imu"
	"github.com/relabs-tech/inertial_gestures/internal/orientation"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

// ReadingMessage is published on TOPIC_READING.
type ReadingMessage struct {
	accel.Reading
	Tilt orientation.Tilt `json:"tilt"`
	Time time.Time        `json:"time"`
}

// GestureMessage is published on TOPIC_GESTURE, once per detected shake.
type GestureMessage struct {
	Axis shake.Axis `json:"axis"`
	Time time.Time  `json:"time"`
}

// CalibrateCommand is consumed from TOPIC_CALIBRATE.
type CalibrateCommand struct {
	X bool `json:"x"`
	Y bool `json:"y"`
}

// CalibrationOutcome reports the result of the last calibrate command.
type CalibrationOutcome struct {
	Requested CalibrateCommand `json:"requested"`
	Accepted  bool             `json:"accepted"`
	Error     string           `json:"error,omitempty"`
	Offset    imu.Vector3D     `json:"offset"`
	Time      time.Time        `json:"time"`
}

// StatusMessage is published retained on TOPIC_STATUS.
type StatusMessage struct {
	gesture.Status
	LastCalibration *CalibrationOutcome `json:"last_calibration,omitempty"`
	Time            time.Time           `json:"time"`
}

func newReadingMessage(r accel.Reading, t time.Time) ReadingMessage {
	return ReadingMessage{
		Reading: r,
		Tilt:    orientation.FromReading(r),
		Time:    t,
	}
}
