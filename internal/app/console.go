// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/calibration"
	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/orientation"
	"github.com/relabs-tech/inertial_gestures/internal/sensors"
)

// RunConsole runs the service in-process against the mock source and prints
// readings and shakes. No broker or hardware is needed.
func RunConsole(logger *slog.Logger, sampleInterval, printInterval time.Duration) error {
	src := sensors.NewPollingSource("mock", sensors.NewMockReader(), sampleInterval, logger)
	svc, err := gesture.New(gesture.Options{
		Source: src,
		Store:  &calibration.MemoryStore{},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	events := gesture.NewChannelObserver(64, 16)
	svc.Subscribe(events)
	svc.SetActive(true)
	defer svc.SetActive(false)

	ctx, stop := signalContext()
	defer stop()

	ticker := time.NewTicker(printInterval)
	defer ticker.Stop()

	var last accel.Reading
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-events.Readings:
			last = r
		case g := <-events.Gestures:
			fmt.Fprintf(os.Stdout, "[SHAKE] axis=%s\n", g.Axis)
		case <-ticker.C:
			printReading(os.Stdout, last, svc.State().String())
		}
	}
}

func printReading(w io.Writer, r accel.Reading, state string) {
	tilt := orientation.FromReading(r)
	fmt.Fprintf(w,
		"[ACC] fast=(%6.3f %6.3f %6.3f) avg=(%6.3f %6.3f %6.3f) |a|=%5.3f stable=%-5t state=%-7s ROLL=%6.2f PITCH=%6.2f\n",
		r.FastFiltered.X(), r.FastFiltered.Y(), r.FastFiltered.Z(),
		r.Averaged.X(), r.Averaged.Y(), r.Averaged.Z(),
		r.FastFiltered.Magnitude(), r.Stable, state,
		tilt.Roll, tilt.Pitch,
	)
}
