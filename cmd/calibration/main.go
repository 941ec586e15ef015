// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/app"
	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/logging"
)

// Interactive zero-g calibration. Place the device flat and still, then
// press ENTER. Needs direct access to the sensor, so stop the producer first.
func main() {
	configPath := flag.String("config", "gestures_config.txt", "path to configuration file")
	calX := flag.Bool("x", true, "calibrate the X axis")
	calY := flag.Bool("y", true, "calibrate the Y axis")
	timeout := flag.Duration("timeout", 30*time.Second, "give up if the device does not settle")
	flag.Parse()

	if !*calX && !*calY {
		log.Fatal("nothing to calibrate: both -x and -y are false")
	}
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Setup("calibration", config.Get().LogLevel)

	axes := app.CalibrateCommand{X: *calX, Y: *calY}
	if err := app.RunCalibration(logger, os.Stdin, os.Stdout, axes, *timeout); err != nil {
		logger.Error("calibration failed", "err", err)
		os.Exit(1)
	}
}
