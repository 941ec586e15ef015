// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package accel

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// Pipeline turns raw accelerometer samples into filtered, averaged and
// calibration-corrected readings, and tracks whether the device is lying
// still. All state is guarded by one mutex, so OnSample may run on a sensor
// goroutine while another goroutine queries stability or calibrates.
type Pipeline struct {
	settings Settings
	filter   SampleFilter
	store    CalibrationStore
	logger   *slog.Logger

	maxStabilityDelta  float64
	maxCalibrationTilt float64

	mu          sync.Mutex
	initialized bool
	window      *SampleWindow
	prevLowPass imu.Vector3D
	prevFast    imu.Vector3D
	average     imu.Vector3D // uncalibrated
	stableCount int
	offset      imu.Vector3D

	saveMu sync.Mutex
}

// NewPipeline validates settings and loads the persisted calibration offset.
// A store that fails to load is logged and the offset starts at zero; a nil
// store keeps calibration in memory only.
func NewPipeline(settings Settings, store CalibrationStore, logger *slog.Logger) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("accel pipeline settings: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		settings: settings,
		filter: SampleFilter{
			Coefficient:       settings.LowPassCoefficient,
			NoiseMaxAmplitude: settings.NoiseMaxAmplitude,
		},
		store:              store,
		logger:             logger,
		maxStabilityDelta:  settings.MaxStabilityDeltaOffset(),
		maxCalibrationTilt: settings.MaxCalibrationTilt(),
		window:             NewSampleWindow(settings.SamplesCount),
	}

	if store != nil {
		offset, err := store.Load()
		if err != nil {
			logger.Warn("calibration load failed, using zero offset", "err", err)
		} else {
			p.offset = imu.New(offset.X(), offset.Y(), 0)
		}
	}
	return p, nil
}

func (p *Pipeline) Settings() Settings { return p.settings }

// OnSample processes one sensor tick.
func (p *Pipeline) OnSample(raw imu.Vector3D) Reading {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		// Seeding with the first sample keeps the first window's worth of
		// averages from being dragged toward zero.
		p.window.Seed(raw)
		p.average = raw
		p.prevLowPass = raw
		p.prevFast = raw
		p.stableCount = 0
		p.initialized = true
	}

	lowPass := p.filter.LowPass(raw, p.prevLowPass)
	p.prevLowPass = lowPass

	fast := p.filter.FastFiltered(raw, p.prevFast)
	p.prevFast = fast

	averaged := p.window.Push(fast)
	p.average = averaged

	delta := averaged.Sub(fast)
	if math.Abs(delta.X()) > p.maxStabilityDelta ||
		math.Abs(delta.Y()) > p.maxStabilityDelta ||
		math.Abs(delta.Z()) > p.maxStabilityDelta {
		p.stableCount = 0
	} else if p.stableCount < p.settings.SamplesCount {
		p.stableCount++
	}

	return Reading{
		Raw:          raw.Add(p.offset),
		LowPass:      lowPass.Add(p.offset),
		FastFiltered: fast.Add(p.offset),
		Averaged:     averaged.Add(p.offset),
		Stable:       p.isStableLocked(),
	}
}

// Reset makes the next OnSample re-seed the window and filter memory, as
// on a cold start.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	p.stableCount = 0
}

// IsDeviceStable reports whether the last SamplesCount ticks all stayed
// within the stability delta of the running average.
func (p *Pipeline) IsDeviceStable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isStableLocked()
}

func (p *Pipeline) isStableLocked() bool {
	return p.stableCount >= p.settings.SamplesCount
}

// CalibrationOffset returns the offset currently added to every reading.
func (p *Pipeline) CalibrationOffset() imu.Vector3D {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// CanCalibrate reports whether the device is stable and the selected axes
// of the uncalibrated average are within the calibration tilt.
func (p *Pipeline) CanCalibrate(useX, useY bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canCalibrateLocked(useX, useY)
}

func (p *Pipeline) canCalibrateLocked(useX, useY bool) bool {
	if !p.isStableLocked() {
		return false
	}
	var sq float64
	if useX {
		sq += p.average.X() * p.average.X()
	}
	if useY {
		sq += p.average.Y() * p.average.Y()
	}
	return math.Sqrt(sq) <= p.maxCalibrationTilt
}

// Calibrate sets the selected offset axes to the negated current average so
// that the average reads zero afterwards, then persists the offset. It
// returns false with a nil error when the device is not stable or level
// enough. A non-nil error means the new offset is in effect but could not
// be saved.
func (p *Pipeline) Calibrate(useX, useY bool) (bool, error) {
	// saveMu spans commit and save so the store sees offsets in commit order.
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	if !p.canCalibrateLocked(useX, useY) {
		p.mu.Unlock()
		return false, nil
	}
	x, y := p.offset.X(), p.offset.Y()
	if useX {
		x = -p.average.X()
	}
	if useY {
		y = -p.average.Y()
	}
	p.offset = imu.New(x, y, 0)
	offset := p.offset
	p.mu.Unlock()

	p.logger.Info("calibration committed", "offset_x", offset.X(), "offset_y", offset.Y())

	if p.store == nil {
		return true, nil
	}
	if err := p.store.Save(offset); err != nil {
		return true, fmt.Errorf("save calibration: %w", err)
	}
	return true, nil
}
