package app

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

// gestureFlash is how long a detected shake stays on screen.
const gestureFlash = 1500 * time.Millisecond

// screen is the part of *ssd1306.Dev the display loop needs.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	reading     ReadingMessage
	haveReading bool

	status     StatusMessage
	haveStatus bool

	gesture   shake.Gesture
	gestureAt time.Time
}

// displaySnapshot is a lock-free copy of DisplayData.
type displaySnapshot struct {
	reading     ReadingMessage
	haveReading bool
	status      StatusMessage
	haveStatus  bool
	gesture     shake.Gesture
	gestureAt   time.Time
}

func (d *DisplayData) snapshot() displaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return displaySnapshot{
		reading:     d.reading,
		haveReading: d.haveReading,
		status:      d.status,
		haveStatus:  d.haveStatus,
		gesture:     d.gesture,
		gestureAt:   d.gestureAt,
	}
}

// RunDisplay drives an SSD1306 OLED from the producer's MQTT topics.
func RunDisplay(logger *slog.Logger) error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	logger.Info("display initialized", "bus", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logger.Warn("splash failed", "err", err)
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	data := &DisplayData{}
	if err := subscribeJSON(client, cfg.TopicReading, logger, func(m ReadingMessage) {
		data.mu.Lock()
		data.reading, data.haveReading = m, true
		data.mu.Unlock()
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicStatus, logger, func(m StatusMessage) {
		data.mu.Lock()
		data.status, data.haveStatus = m, true
		data.mu.Unlock()
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicGesture, logger, func(m GestureMessage) {
		data.mu.Lock()
		data.gesture, data.gestureAt = shake.Gesture{Axis: m.Axis}, time.Now()
		data.mu.Unlock()
	}); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logger.Info("starting display update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := updateDisplay(dev, data.snapshot(), now); err != nil {
				logger.Warn("display update failed", "err", err)
			}
		}
	}
}

func updateDisplay(dev screen, s displaySnapshot, now time.Time) error {
	return dev.Draw(dev.Bounds(), renderPage(s, now), image.Point{})
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderPage draws the gesture banner while a shake is recent and the
// tilt/status page otherwise.
func renderPage(s displaySnapshot, now time.Time) *image1bit.VerticalLSB {
	img, d := newCanvas()

	if !s.gestureAt.IsZero() && now.Sub(s.gestureAt) < gestureFlash {
		drawLine(d, 30, 26, "SHAKE")
		drawLine(d, 30, 43, "axis "+s.gesture.Axis.String())
		return img
	}

	if s.haveStatus && s.status.NoAccelerometer {
		drawLine(d, 0, 26, "No accelerometer")
		drawLine(d, 0, 43, "source: "+s.status.Source)
		return img
	}

	if !s.haveReading {
		drawLine(d, 0, 26, "Gestures")
		drawLine(d, 0, 39, "Waiting...")
		return img
	}

	r := s.reading
	drawLine(d, 0, 13, fmt.Sprintf("R:%6.1f P:%6.1f", r.Tilt.Roll, r.Tilt.Pitch))
	drawLine(d, 0, 26, fmt.Sprintf("|a| %5.3f g", r.FastFiltered.Magnitude()))

	state, stable := "?", r.Stable
	if s.haveStatus {
		state = s.status.State.String()
	}
	flag := "moving"
	if stable {
		flag = "stable"
	}
	drawLine(d, 0, 39, state+" "+flag)

	if s.haveStatus {
		off := s.status.Offset
		drawLine(d, 0, 52, fmt.Sprintf("cal %+.3f %+.3f", off.X(), off.Y()))
	}
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newCanvas()
	drawLine(d, 10, 26, "Inertial Pi")
	drawLine(d, 5, 43, "Shake to start")
	return img
}
