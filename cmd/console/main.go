// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"os"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/app"
	"github.com/relabs-tech/inertial_gestures/internal/logging"
)

func main() {
	sample := flag.Duration("sample", 20*time.Millisecond, "mock sample interval")
	printEvery := flag.Duration("print", 500*time.Millisecond, "reading print interval")
	level := flag.String("log-level", "info", "log level (error, warn, info, debug)")
	flag.Parse()

	logger := logging.Setup("console", *level)
	logger.Info("starting mock console", "sample", *sample, "print", *printEvery)

	if err := app.RunConsole(logger, *sample, *printEvery); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
