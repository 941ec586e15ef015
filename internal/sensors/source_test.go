package sensors

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

func TestAbsentSource(t *testing.T) {
	reason := errors.New("no spi bus")
	src := Absent{Reason: reason}

	if src.Available() {
		t.Fatalf("absent source reported available")
	}
	err := src.Start(func(imu.Vector3D) {})
	if !errors.Is(err, ErrNoAccelerometer) {
		t.Fatalf("expected ErrNoAccelerometer, got %v", err)
	}
	if !errors.Is(err, reason) {
		t.Fatalf("expected wrapped reason, got %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

type countingReader struct {
	mu sync.Mutex
	n  int
}

func (r *countingReader) ReadAccel() (imu.Vector3D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	if r.n%2 == 0 {
		return imu.Vector3D{}, errors.New("transient")
	}
	return imu.New(0, -1, 0), nil
}

func TestPollingSourceDeliversAndStops(t *testing.T) {
	src := NewPollingSource("test", &countingReader{}, time.Millisecond, nil)

	got := make(chan imu.Vector3D, 64)
	if err := src.Start(func(v imu.Vector3D) {
		select {
		case got <- v:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case v := <-got:
		if v.Y() != -1 {
			t.Fatalf("unexpected sample %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no sample delivered")
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestMockReaderRestsThenShakes(t *testing.T) {
	m := NewMockReader()
	m.Noise = 0

	for i := 0; i < m.StillTicks; i++ {
		v, _ := m.ReadAccel()
		if !v.Equal(m.Gravity) {
			t.Fatalf("tick %d: expected gravity, got %v", i, v)
		}
	}

	var peak float64
	for i := 0; i < m.BurstTicks; i++ {
		v, _ := m.ReadAccel()
		if d := v.X(); d > peak {
			peak = d
		}
	}
	if peak < m.Amplitude*0.9 {
		t.Fatalf("burst peak %.3f below amplitude %.3f", peak, m.Amplitude)
	}
}

type pipePort struct {
	io.Reader
	once sync.Once
	w    *io.PipeWriter
}

func (p *pipePort) Write(b []byte) (int, error) { return len(b), nil }

func (p *pipePort) Close() error {
	p.once.Do(func() { p.w.Close() })
	return nil
}

func TestSerialSourceParsesLines(t *testing.T) {
	r, w := io.Pipe()
	port := &pipePort{Reader: r, w: w}

	src := NewSerialSource("/dev/null", 115200, nil)
	src.open = func(serial.OpenOptions) (io.ReadWriteCloser, error) { return port, nil }

	got := make(chan imu.Vector3D, 4)
	if err := src.Start(func(v imu.Vector3D) { got <- v }); err != nil {
		t.Fatalf("start: %v", err)
	}

	input := strings.Join([]string{
		"CCL,0,0", // partial line from mid-sentence open
		withChecksum("PACCL,0.5,-1,0"),
		"$PACCL,1,1,1*00",
		"",
	}, "\n")
	go w.Write([]byte(input))

	select {
	case v := <-got:
		if v.X() != 0.5 || v.Y() != -1 {
			t.Fatalf("unexpected sample %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no sample delivered")
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case v := <-got:
		t.Fatalf("bad checksum line delivered %v", v)
	default:
	}
}

func TestSerialSourceReportsDeadPort(t *testing.T) {
	ports := make(chan *io.PipeWriter, 2)
	src := NewSerialSource("/dev/null", 115200, nil)
	src.open = func(serial.OpenOptions) (io.ReadWriteCloser, error) {
		r, w := io.Pipe()
		ports <- w
		return &pipePort{Reader: r, w: w}, nil
	}

	failed := make(chan error, 1)
	src.OnFailure(func(err error) { failed <- err })

	if err := src.Start(func(imu.Vector3D) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	w := <-ports
	w.CloseWithError(io.ErrUnexpectedEOF)

	select {
	case err := <-failed:
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("unexpected failure %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("failure not reported")
	}

	// the port was released, so the source can be started again
	if err := src.Start(func(imu.Vector3D) {}); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-failed:
		t.Fatalf("stop reported as failure: %v", err)
	default:
	}
}
