// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/orientation"
)

// ErrCalibrationTimeout is returned when the device never became stable
// and level enough within the allotted time.
var ErrCalibrationTimeout = errors.New("device did not become stable and level in time")

const calibrationPoll = 100 * time.Millisecond

// RunCalibration guides the user through a zero-offset calibration of the
// selected axes and writes the result to CALIBRATION_FILE.
func RunCalibration(logger *slog.Logger, in io.Reader, out io.Writer, axes CalibrateCommand, timeout time.Duration) error {
	if !axes.X && !axes.Y {
		return errors.New("select at least one axis")
	}
	cfg := config.Get()

	src := newSource(cfg, logger)
	svc, store, err := newService(cfg, src, logger)
	if err != nil {
		return err
	}
	if svc.NoAccelerometer() {
		return fmt.Errorf("calibration needs an accelerometer (source %s)", cfg.SensorSource)
	}

	prev := svc.CalibrationOffset()
	fmt.Fprintf(out, "Current offset: x=%+.4f y=%+.4f (%s)\n", prev.X(), prev.Y(), store.Path())
	fmt.Fprintln(out, "Place the device on a flat, level surface and do not touch it.")
	fmt.Fprint(out, "Press ENTER to start...")
	bufio.NewReader(in).ReadString('\n')

	var (
		mu   sync.Mutex
		tilt orientation.Tilt
	)
	svc.Subscribe(gesture.ObserverFuncs{OnReading: func(r accel.Reading) {
		mu.Lock()
		tilt = orientation.FromReading(r)
		mu.Unlock()
	}})

	svc.SetActive(true)
	defer svc.SetActive(false)
	if svc.NoAccelerometer() {
		return errors.New("accelerometer failed to start")
	}

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := awaitCalibration(ctx, svc, axes, calibrationPoll, func(st gesture.Status) {
		mu.Lock()
		t := tilt
		mu.Unlock()
		fmt.Fprintf(out, "\r  stable=%-5t ready=%-5t roll=%6.1f pitch=%6.1f", st.Stable, st.CanCalibrate, t.Roll, t.Pitch)
	})
	fmt.Fprintln(out)
	if err != nil {
		return err
	}
	if outcome.Error != "" {
		return errors.New(outcome.Error)
	}

	rec, err := store.Record()
	if err != nil {
		return fmt.Errorf("read back calibration: %w", err)
	}
	fmt.Fprintf(out, "Calibration saved to %s\n", store.Path())
	fmt.Fprintf(out, "  offset x=%+.4f y=%+.4f at %s\n", rec.OffsetX, rec.OffsetY, rec.CalibrationAt)
	return nil
}

// awaitCalibration polls until the selected axes can be calibrated, then
// commits. progress is called on every poll. Readiness is judged on the
// selected axes only, while Status reports X and Y together.
func awaitCalibration(ctx context.Context, svc *gesture.Service, axes CalibrateCommand, poll time.Duration, progress func(gesture.Status)) (CalibrationOutcome, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return CalibrationOutcome{}, ErrCalibrationTimeout
			}
			return CalibrationOutcome{}, ctx.Err()
		case now := <-ticker.C:
			st := svc.Status()
			st.CanCalibrate = svc.CanCalibrate(axes.X, axes.Y)
			if progress != nil {
				progress(st)
			}
			if !st.CanCalibrate {
				continue
			}
			outcome := calibrate(svc, axes, now)
			if outcome.Accepted {
				return outcome, nil
			}
			// lost stability between the check and the commit
		}
	}
}
