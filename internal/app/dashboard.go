package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gdamore/tcell/v2"

	"github.com/relabs-tech/inertial_gestures/internal/config"
)

const dashboardHistory = 8

// dashboardState is what the dashboard shows, fed from MQTT callbacks.
type dashboardState struct {
	mu sync.Mutex

	reading     ReadingMessage
	haveReading bool
	status      StatusMessage
	haveStatus  bool
	gestures    []GestureMessage // newest last
	notice      string
}

func (s *dashboardState) setReading(m ReadingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading, s.haveReading = m, true
}

func (s *dashboardState) setStatus(m StatusMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.haveStatus = m, true
}

func (s *dashboardState) addGesture(m GestureMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gestures = append(s.gestures, m)
	if len(s.gestures) > dashboardHistory {
		s.gestures = s.gestures[len(s.gestures)-dashboardHistory:]
	}
}

func (s *dashboardState) setNotice(n string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = n
}

// RunDashboard shows live readings, detector status and recent shakes in
// the terminal, with an audible cue per shake. Keys: c calibrates X and Y,
// x or y calibrates one axis, q or Esc quits.
func RunDashboard(logger *slog.Logger) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDashboard, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	cue := &shakeCue{}
	if cfg.AudioEnabled {
		if err := cue.Initialize(); err != nil {
			// Non-fatal, the dashboard works without sound
			logger.Warn("audio initialization failed", "err", err)
		}
		defer cue.Close()
	}

	state := &dashboardState{}
	if err := subscribeJSON(client, cfg.TopicReading, logger, state.setReading); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicStatus, logger, state.setStatus); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicGesture, logger, func(m GestureMessage) {
		state.addGesture(m)
		if err := cue.Play(m.Axis); err != nil {
			logger.Warn("cue failed", "err", err)
		}
	}); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	eventChan := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ctx, stop := signalContext()
	defer stop()

	ticker := time.NewTicker(100 * time.Millisecond) // ~10 FPS
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-eventChan:
			if !handleDashboardInput(ev, client, cfg, state, logger) {
				return nil
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
		case now := <-ticker.C:
			drawDashboard(screen, state, now)
		}
	}
}

func handleDashboardInput(ev tcell.Event, client mqtt.Client, cfg *config.Config, state *dashboardState, logger *slog.Logger) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}
	if key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC {
		return false
	}
	if key.Key() != tcell.KeyRune {
		return true
	}

	var cmd CalibrateCommand
	switch key.Rune() {
	case 'q':
		return false
	case 'c':
		cmd = CalibrateCommand{X: true, Y: true}
	case 'x':
		cmd = CalibrateCommand{X: true}
	case 'y':
		cmd = CalibrateCommand{Y: true}
	default:
		return true
	}
	publishJSON(client, cfg.TopicCalibrate, false, cmd, logger)
	state.setNotice(fmt.Sprintf("calibration requested x=%t y=%t", cmd.X, cmd.Y))
	return true
}

var (
	styleLabel = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleGood  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWarn  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleShake = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// drawDashboard renders one frame from the current state.
func drawDashboard(screen tcell.Screen, state *dashboardState, now time.Time) {
	state.mu.Lock()
	reading, haveReading := state.reading, state.haveReading
	status, haveStatus := state.status, state.haveStatus
	gestures := append([]GestureMessage(nil), state.gestures...)
	notice := state.notice
	state.mu.Unlock()

	screen.Clear()
	drawText(screen, 0, 0, styleValue, "inertial gestures  (c: calibrate xy, x/y: one axis, q: quit)")

	row := 2
	if !haveStatus {
		drawText(screen, 0, row, styleWarn, "waiting for producer status...")
	} else {
		drawText(screen, 0, row, styleLabel, "source")
		drawText(screen, 16, row, styleValue, status.Source)
		row++
		drawText(screen, 0, row, styleLabel, "detector")
		stateStyle := styleGood
		if status.State.String() == "shaking" {
			stateStyle = styleShake
		}
		drawText(screen, 16, row, stateStyle, status.State.String())
		row++
		drawText(screen, 0, row, styleLabel, "calibration")
		calStyle := styleWarn
		if status.CanCalibrate {
			calStyle = styleGood
		}
		drawText(screen, 16, row, calStyle, fmt.Sprintf("offset x=%+.4f y=%+.4f  can_calibrate=%t",
			status.Offset.X(), status.Offset.Y(), status.CanCalibrate))
		if status.NoAccelerometer {
			row++
			drawText(screen, 0, row, styleShake, "no accelerometer")
		}
	}

	row += 2
	if haveReading {
		r := reading
		drawText(screen, 0, row, styleLabel, "fast")
		drawText(screen, 16, row, styleValue, fmt.Sprintf("%+.3f %+.3f %+.3f  |a|=%.3f",
			r.FastFiltered.X(), r.FastFiltered.Y(), r.FastFiltered.Z(), r.FastFiltered.Magnitude()))
		row++
		drawText(screen, 0, row, styleLabel, "averaged")
		drawText(screen, 16, row, styleValue, fmt.Sprintf("%+.3f %+.3f %+.3f",
			r.Averaged.X(), r.Averaged.Y(), r.Averaged.Z()))
		row++
		drawText(screen, 0, row, styleLabel, "tilt")
		drawText(screen, 16, row, styleValue, fmt.Sprintf("roll %6.1f  pitch %6.1f", r.Tilt.Roll, r.Tilt.Pitch))
		row++
		stableStyle, stableText := styleWarn, "moving"
		if r.Stable {
			stableStyle, stableText = styleGood, "stable"
		}
		drawText(screen, 0, row, styleLabel, "device")
		drawText(screen, 16, row, stableStyle, stableText)
	}

	row += 2
	drawText(screen, 0, row, styleLabel, "recent shakes")
	for i := len(gestures) - 1; i >= 0; i-- {
		row++
		g := gestures[i]
		style := styleValue
		if now.Sub(g.Time) < gestureFlash {
			style = styleShake
		}
		drawText(screen, 2, row, style, fmt.Sprintf("%s  axis %s", g.Time.Format("15:04:05.000"), g.Axis))
	}

	if notice != "" {
		_, h := screen.Size()
		drawText(screen, 0, h-1, styleWarn, notice)
	}
	screen.Show()
}
