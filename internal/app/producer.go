// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

const statusInterval = time.Second

// RunProducer reads the configured sensor, runs the pipeline and detector
// and publishes readings, gestures and status over MQTT until interrupted.
func RunProducer(logger *slog.Logger) error {
	cfg := config.Get()

	src := newSource(cfg, logger)
	svc, _, err := newService(cfg, src, logger)
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	p := newProducer(cfg, svc, client, logger)
	svc.Subscribe(p)

	if err := subscribeJSON(client, cfg.TopicCalibrate, logger, p.handleCalibrate); err != nil {
		return err
	}

	svc.SetActive(true)
	defer svc.SetActive(false)
	if svc.NoAccelerometer() {
		logger.Warn("running without accelerometer, only status is published")
	}

	ctx, stop := signalContext()
	defer stop()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	p.publishStatus()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			p.publishStatus()
		}
	}
}

// producer is the service observer that forwards events to MQTT.
type producer struct {
	cfg    *config.Config
	svc    *gesture.Service
	client mqtt.Client
	logger *slog.Logger

	readings uint64 // only touched from observer callbacks

	mu              sync.Mutex
	lastCalibration *CalibrationOutcome
}

func newProducer(cfg *config.Config, svc *gesture.Service, client mqtt.Client, logger *slog.Logger) *producer {
	return &producer{cfg: cfg, svc: svc, client: client, logger: logger}
}

func (p *producer) ReadingChanged(r accel.Reading) {
	p.readings++
	every := uint64(p.cfg.ReadingPublishEvery)
	if every == 0 || p.readings%every != 0 {
		return
	}
	publishJSON(p.client, p.cfg.TopicReading, false, newReadingMessage(r, time.Now()), p.logger)
}

func (p *producer) ShakeDetected(g shake.Gesture) {
	publishJSON(p.client, p.cfg.TopicGesture, false, GestureMessage{Axis: g.Axis, Time: time.Now()}, p.logger)
}

func (p *producer) handleCalibrate(cmd CalibrateCommand) {
	outcome := calibrate(p.svc, cmd, time.Now())
	if outcome.Accepted {
		p.logger.Info("calibration accepted", "x", cmd.X, "y", cmd.Y, "offset", outcome.Offset)
	} else {
		p.logger.Warn("calibration rejected", "x", cmd.X, "y", cmd.Y, "reason", outcome.Error)
	}

	p.mu.Lock()
	p.lastCalibration = &outcome
	p.mu.Unlock()
	p.publishStatus()
}

func (p *producer) publishStatus() {
	p.mu.Lock()
	last := p.lastCalibration
	p.mu.Unlock()

	msg := StatusMessage{
		Status:          p.svc.Status(),
		LastCalibration: last,
		Time:            time.Now(),
	}
	publishJSON(p.client, p.cfg.TopicStatus, true, msg, p.logger)
}

// calibrate runs one calibrate command against svc.
func calibrate(svc *gesture.Service, cmd CalibrateCommand, now time.Time) CalibrationOutcome {
	outcome := CalibrationOutcome{Requested: cmd, Time: now}
	switch {
	case !cmd.X && !cmd.Y:
		outcome.Error = "no axis selected"
	case svc.NoAccelerometer():
		outcome.Error = "no accelerometer"
	default:
		ok, err := svc.Calibrate(cmd.X, cmd.Y)
		outcome.Accepted = ok
		if !ok {
			outcome.Error = "device not stable or not level"
		} else if err != nil {
			outcome.Error = fmt.Sprintf("offset applied but not saved: %v", err)
		}
	}
	outcome.Offset = svc.CalibrationOffset()
	return outcome
}
