package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/inertial_gestures/internal/calibration"
	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/sensors"
)

// newSource builds the sensor source named by SENSOR_SOURCE. Hardware that
// cannot be initialized yields an absent source so the service reports
// NoAccelerometer instead of failing to start.
func newSource(cfg *config.Config, logger *slog.Logger) sensors.Source {
	switch cfg.SensorSource {
	case config.SourceMPU9250:
		raw, err := sensors.NewMPU9250("mpu9250", cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, logger)
		if err != nil {
			logger.Error("mpu9250 init failed", "err", err)
			return sensors.Absent{Reason: err}
		}
		reader := sensors.CountsReader{Src: raw, AccelRange: cfg.IMUAccelRange}
		return sensors.NewPollingSource("mpu9250", reader, cfg.SampleDuration(), logger)

	case config.SourceSerial:
		return sensors.NewSerialSource(cfg.SerialPort, uint(cfg.SerialBaudRate), logger)

	case config.SourceMock:
		return sensors.NewPollingSource("mock", sensors.NewMockReader(), cfg.SampleDuration(), logger)

	default:
		return sensors.Absent{}
	}
}

// newService loads the tuning profile and calibration file and builds the
// gesture service around src.
func newService(cfg *config.Config, src sensors.Source, logger *slog.Logger) (*gesture.Service, *calibration.FileStore, error) {
	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return nil, nil, err
	}
	store := calibration.NewFileStore(cfg.CalibrationFile)

	svc, err := gesture.New(gesture.Options{
		Source:     src,
		Pipeline:   &tuning.Pipeline,
		Thresholds: &tuning.Shake,
		Store:      store,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("gesture service: %w", err)
	}
	return svc, store, nil
}

// signalContext is canceled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
