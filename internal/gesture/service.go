// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture wires a sensor source to the accelerometer pipeline and
// the shake detector, and fans their output out to observers.
package gesture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/imu"
	"github.com/relabs-tech/inertial_gestures/internal/sensors"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

// Options configure a Service. Zero-valued tuning falls back to defaults.
type Options struct {
	Source     sensors.Source
	Pipeline   *accel.Settings
	Thresholds *shake.Thresholds
	Store      accel.CalibrationStore
	Logger     *slog.Logger
}

// Status is a point-in-time view of the service.
type Status struct {
	Source          string       `json:"source"`
	Active          bool         `json:"active"`
	NoAccelerometer bool         `json:"no_accelerometer"`
	Stable          bool         `json:"stable"`
	CanCalibrate    bool         `json:"can_calibrate"`
	Offset          imu.Vector3D `json:"offset"`
	State           shake.State  `json:"state"`
}

// Service owns one pipeline and one detector. Samples are processed under
// a single mutex so the pair sees them strictly in arrival order, and
// observers are notified in the same order without holding that mutex, so
// they may query the service or calibrate from a callback.
//
// Observers must not call SetActive synchronously: stopping the source
// waits for the callback that is running.
type Service struct {
	source   sensors.Source
	pipeline *accel.Pipeline
	detector *shake.Detector
	logger   *slog.Logger

	// ctlMu serializes SetActive so Start and Stop never interleave.
	ctlMu sync.Mutex

	mu        sync.Mutex
	active    bool
	noAccel   bool
	observers []observerEntry
	nextID    int

	// deliverMu is held for a whole tick, processing and delivery, and is
	// always taken before mu. Ticks therefore reach observers in the order
	// they were processed, and mu is never held while waiting for it.
	deliverMu sync.Mutex
}

type observerEntry struct {
	id int
	o  Observer
}

func New(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := accel.DefaultSettings()
	if opts.Pipeline != nil {
		settings = *opts.Pipeline
	}
	th := shake.DefaultThresholds()
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}

	pipeline, err := accel.NewPipeline(settings, opts.Store, logger.With("stage", "pipeline"))
	if err != nil {
		return nil, err
	}
	detector, err := shake.NewDetector(th)
	if err != nil {
		return nil, fmt.Errorf("shake detector: %w", err)
	}

	source := opts.Source
	if source == nil {
		source = sensors.Absent{}
	}

	s := &Service{
		source:   source,
		pipeline: pipeline,
		detector: detector,
		logger:   logger,
		noAccel:  !source.Available(),
	}
	if s.noAccel {
		logger.Warn("no accelerometer available", "source", source.Name())
	}
	if fr, ok := source.(sensors.FailureReporter); ok {
		fr.OnFailure(s.sourceFailed)
	}
	return s, nil
}

// sourceFailed handles a source that stopped on its own. The service is
// left inactive and flagged as having no accelerometer.
func (s *Service) sourceFailed(err error) {
	s.logger.Error("sensor failed", "source", s.source.Name(), "err", err)
	s.mu.Lock()
	s.active = false
	s.noAccel = true
	s.mu.Unlock()
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Service) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observerEntry{id: id, o: o})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.observers {
			if e.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// SetActive starts or stops the sensor subscription. Activation resets the
// pipeline and the detector so every start is a cold start. A source that
// fails to start marks the service as having no accelerometer and later
// activations are no-ops.
func (s *Service) SetActive(active bool) {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()

	if active {
		s.activate()
	} else {
		s.deactivate()
	}
}

func (s *Service) activate() {
	s.mu.Lock()
	if s.noAccel || s.active {
		s.mu.Unlock()
		return
	}
	s.pipeline.Reset()
	s.detector.Reset()
	s.active = true
	s.mu.Unlock()

	if err := s.source.Start(s.HandleSample); err != nil {
		s.logger.Error("sensor activation failed", "source", s.source.Name(), "err", err)
		s.mu.Lock()
		s.active = false
		s.noAccel = true
		s.mu.Unlock()
		return
	}
	s.logger.Info("sensor activated", "source", s.source.Name())
}

func (s *Service) deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	// Stop outside mu: it waits for an in-flight HandleSample.
	if err := s.source.Stop(); err != nil {
		s.logger.Error("sensor deactivation failed", "source", s.source.Name(), "err", err)
		s.mu.Lock()
		s.noAccel = true
		s.mu.Unlock()
		return
	}
	s.logger.Info("sensor deactivated", "source", s.source.Name())
}

// HandleSample processes one raw sample. It is the handler given to the
// source; samples arriving while inactive are ignored.
func (s *Service) HandleSample(raw imu.Vector3D) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	reading := s.pipeline.OnSample(raw)
	g, fired := s.detector.Process(reading.FastFiltered)
	observers := make([]Observer, len(s.observers))
	for i, e := range s.observers {
		observers[i] = e.o
	}
	s.mu.Unlock()

	if fired {
		s.logger.Info("shake detected", "axis", g.Axis)
	}
	for _, o := range observers {
		o.ReadingChanged(reading)
	}
	if fired {
		for _, o := range observers {
			o.ShakeDetected(g)
		}
	}
}

func (s *Service) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// NoAccelerometer reports whether the source is missing or has failed.
func (s *Service) NoAccelerometer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noAccel
}

func (s *Service) IsDeviceStable() bool { return s.pipeline.IsDeviceStable() }

func (s *Service) CanCalibrate(useX, useY bool) bool {
	return s.pipeline.CanCalibrate(useX, useY)
}

// Calibrate commits a calibration of the selected axes. See
// accel.Pipeline.Calibrate for the meaning of the results.
func (s *Service) Calibrate(useX, useY bool) (bool, error) {
	return s.pipeline.Calibrate(useX, useY)
}

func (s *Service) CalibrationOffset() imu.Vector3D { return s.pipeline.CalibrationOffset() }

// State returns the detector state.
func (s *Service) State() shake.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.State()
}

func (s *Service) Status() Status {
	s.mu.Lock()
	st := Status{
		Source:          s.source.Name(),
		Active:          s.active,
		NoAccelerometer: s.noAccel,
		State:           s.detector.State(),
	}
	s.mu.Unlock()

	st.Stable = s.pipeline.IsDeviceStable()
	st.CanCalibrate = s.pipeline.CanCalibrate(true, true)
	st.Offset = s.pipeline.CalibrationOffset()
	return st
}
