// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// ErrNoAccelerometer is returned by sources that have no sensor behind them.
var ErrNoAccelerometer = errors.New("no accelerometer available")

// Handler receives one accelerometer sample in g per sensor tick.
type Handler func(sample imu.Vector3D)

// Source pushes accelerometer samples to a handler until stopped. Start and
// Stop may be called repeatedly; Stop waits until the handler is no longer
// being called.
type Source interface {
	Name() string
	Available() bool
	Start(h Handler) error
	Stop() error
}

// FailureReporter is implemented by sources that can stop on their own,
// for example a serial board that is unplugged. The callback runs once per
// failure, after the source has released its resources, so Start may be
// called again.
type FailureReporter interface {
	OnFailure(f func(err error))
}

// Reader reads one accelerometer sample in g on demand.
type Reader interface {
	ReadAccel() (imu.Vector3D, error)
}

// CountsReader adapts a raw counts source to a Reader.
type CountsReader struct {
	Src        imu.IMURawSource
	AccelRange byte
}

func (c CountsReader) ReadAccel() (imu.Vector3D, error) {
	raw, err := c.Src.ReadRaw()
	if err != nil {
		return imu.Vector3D{}, err
	}
	return raw.ToG(c.AccelRange)
}

// Absent is the source used when the platform has no accelerometer.
type Absent struct {
	Reason error
}

func (a Absent) Name() string    { return "none" }
func (a Absent) Available() bool { return false }

func (a Absent) Start(Handler) error {
	if a.Reason != nil {
		return errors.Join(ErrNoAccelerometer, a.Reason)
	}
	return ErrNoAccelerometer
}

func (a Absent) Stop() error { return nil }
