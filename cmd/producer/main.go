// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/inertial_gestures/internal/app"
	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/logging"
)

func main() {
	configPath := flag.String("config", "gestures_config.txt", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Setup("producer", config.Get().LogLevel)
	logger.Info("starting gesture producer")

	if err := app.RunProducer(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
