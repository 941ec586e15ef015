// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log/slog"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

type mpu9250Source struct {
	name string
	imu  *mpu9250.MPU9250
}

// NewMPU9250 initializes an MPU9250 over SPI and returns it as a raw counts
// source. Self-test and on-chip bias calibration failures are logged but
// not fatal.
func NewMPU9250(name, spiDev, csPin string, accelRange byte, logger *slog.Logger) (imu.IMURawSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("imu", name)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("%s IMU: set accel range: %w", name, err)
	}
	logger.Info("accelerometer range set", "range", accelRange, "g", []int{2, 4, 8, 16}[accelRange])

	if _, err := dev.SelfTest(); err != nil {
		logger.Warn("self-test failed", "err", err)
	}
	if err := dev.Calibrate(); err != nil {
		logger.Warn("on-chip calibration failed", "err", err)
	}

	return &mpu9250Source{name: name, imu: dev}, nil
}

// ReadRaw reads the three accelerometer axes.
func (s *mpu9250Source) ReadRaw() (imu.IMURaw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel X: %w", s.name, err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel Y: %w", s.name, err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel Z: %w", s.name, err)
	}

	return imu.IMURaw{
		Source: s.name,
		Ax:     ax,
		Ay:     ay,
		Az:     az,
	}, nil
}
