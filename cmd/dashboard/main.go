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
	logPath := flag.String("log", "dashboard.log", "log file (the terminal is owned by the dashboard)")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer f.Close()

	level, err := logging.ParseLevel(config.Get().LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	logger := logging.New(f, level).With("component", "dashboard")

	if err := app.RunDashboard(logger); err != nil {
		f.Close()
		log.Fatalf("fatal: %v", err)
	}
}
