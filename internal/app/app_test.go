package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/calibration"
	"github.com/relabs-tech/inertial_gestures/internal/config"
	"github.com/relabs-tech/inertial_gestures/internal/gesture"
	"github.com/relabs-tech/inertial_gestures/internal/imu"
	"github.com/relabs-tech/inertial_gestures/internal/sensors"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

// pushSource lets tests drive the service handler directly.
type pushSource struct {
	mu      sync.Mutex
	handler sensors.Handler
}

func (p *pushSource) Name() string    { return "push" }
func (p *pushSource) Available() bool { return true }

func (p *pushSource) Start(h sensors.Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
	return nil
}

func (p *pushSource) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = nil
	return nil
}

func (p *pushSource) push(v imu.Vector3D, n int) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	for i := 0; i < n; i++ {
		h(v)
	}
}

func newActiveService(t *testing.T) (*gesture.Service, *pushSource) {
	t.Helper()
	src := &pushSource{}
	svc, err := gesture.New(gesture.Options{Source: src, Store: &calibration.MemoryStore{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.SetActive(true)
	t.Cleanup(func() { svc.SetActive(false) })
	return svc, src
}

func TestCalibrateOutcome(t *testing.T) {
	svc, src := newActiveService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if out := calibrate(svc, CalibrateCommand{}, now); out.Accepted || out.Error == "" {
		t.Fatalf("expected rejection without axes, got %+v", out)
	}

	src.push(imu.New(0.03, -0.02, -1), 5)
	if out := calibrate(svc, CalibrateCommand{X: true, Y: true}, now); out.Accepted {
		t.Fatalf("calibration accepted before the device was stable")
	}

	src.push(imu.New(0.03, -0.02, -1), 30)
	out := calibrate(svc, CalibrateCommand{X: true, Y: true}, now)
	if !out.Accepted || out.Error != "" {
		t.Fatalf("expected accepted calibration, got %+v", out)
	}
	if !out.Offset.WithinTolerance(imu.New(-0.03, 0.02, 0), 1e-9) {
		t.Fatalf("unexpected offset %v", out.Offset)
	}
	if !out.Time.Equal(now) {
		t.Fatalf("outcome time = %v", out.Time)
	}
}

func TestAwaitCalibrationCommits(t *testing.T) {
	svc, src := newActiveService(t)
	src.push(imu.New(0.01, 0.01, -1), 30)

	var polls int
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := awaitCalibration(ctx, svc, CalibrateCommand{X: true}, time.Millisecond, func(gesture.Status) { polls++ })
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if !out.Accepted || polls == 0 {
		t.Fatalf("accepted=%v polls=%d", out.Accepted, polls)
	}
	// only X was requested
	if off := svc.CalibrationOffset(); off.Y() != 0 || off.X() == 0 {
		t.Fatalf("unexpected offset %v", off)
	}
}

func TestAwaitCalibrationTimesOut(t *testing.T) {
	svc, _ := newActiveService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := awaitCalibration(ctx, svc, CalibrateCommand{X: true, Y: true}, time.Millisecond, nil)
	if !errors.Is(err, ErrCalibrationTimeout) {
		t.Fatalf("expected ErrCalibrationTimeout, got %v", err)
	}
}

func TestReadingMessageJSON(t *testing.T) {
	r := accel.Reading{
		Raw:          imu.New(0, 0, 1),
		FastFiltered: imu.New(0, 0, 1),
		Averaged:     imu.New(0, 0, 1),
		Stable:       true,
	}
	b, err := json.Marshal(newReadingMessage(r, time.Unix(0, 0).UTC()))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"fast_filtered"`, `"averaged"`, `"stable":true`, `"tilt"`, `"time"`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("missing %s in %s", key, b)
		}
	}

	var back ReadingMessage
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Averaged.Equal(r.Averaged) || !back.Stable {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestStatusMessageJSON(t *testing.T) {
	msg := StatusMessage{
		Status: gesture.Status{Source: "mock", Active: true, State: shake.StateShaking},
		Time:   time.Unix(0, 0).UTC(),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"state":"shaking"`) {
		t.Fatalf("state not encoded as text: %s", b)
	}
	var back StatusMessage
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.State != shake.StateShaking || back.Source != "mock" || back.LastCalibration != nil {
		t.Fatalf("unexpected status %+v", back)
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()

	cfg.SensorSource = config.SourceMock
	if src := newSource(cfg, nil); src.Name() != "mock" || !src.Available() {
		t.Fatalf("mock source: %s available=%v", src.Name(), src.Available())
	}

	cfg.SensorSource = config.SourceNone
	if src := newSource(cfg, nil); src.Available() {
		t.Fatalf("none source reported available")
	}

	cfg.SensorSource = config.SourceSerial
	if src := newSource(cfg, nil); src.Name() != "serial" {
		t.Fatalf("serial source named %s", src.Name())
	}
}
