package app

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/config"
)

// RunConsoleMQTT prints what the producer publishes. Readings are
// throttled to CONSOLE_LOG_INTERVAL; gestures and status changes are
// printed as they arrive.
func RunConsoleMQTT(logger *slog.Logger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	interval := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var (
		mu        sync.Mutex
		lastPrint time.Time
		lastState string
		lastCalAt time.Time
		noAccel   bool
	)

	if err := subscribeJSON(client, cfg.TopicReading, logger, func(m ReadingMessage) {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(lastPrint) < interval {
			return
		}
		lastPrint = time.Now()
		printReading(os.Stdout, m.Reading, lastState)
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicGesture, logger, func(m GestureMessage) {
		fmt.Printf("[SHAKE] axis=%s at %s\n", m.Axis, m.Time.Format(time.RFC3339Nano))
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicStatus, logger, func(m StatusMessage) {
		mu.Lock()
		defer mu.Unlock()
		lastState = m.State.String()
		if cal := m.LastCalibration; cal != nil && cal.Time.After(lastCalAt) {
			lastCalAt = cal.Time
			fmt.Printf("[CAL ] accepted=%t offset=(%.4f %.4f) %s\n",
				cal.Accepted, cal.Offset.X(), cal.Offset.Y(), cal.Error)
		}
		if m.NoAccelerometer != noAccel {
			noAccel = m.NoAccelerometer
			fmt.Printf("[STAT] source=%s no_accelerometer=%t\n", m.Source, noAccel)
		}
	}); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	return nil
}
