package sensors

import (
	"math"
	"math/rand"
	"sync"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// MockReader generates a repeatable accelerometer signal: gravity at rest
// with a periodic sinusoidal shake burst along one axis.
type MockReader struct {
	Gravity     imu.Vector3D
	Axis        int     // 0=X, 1=Y, 2=Z
	Amplitude   float64 // g
	PeriodTicks int     // shake oscillation period
	StillTicks  int     // ticks at rest before each burst
	BurstTicks  int     // length of each burst
	Noise       float64 // peak uniform jitter in g, 0 disables

	mu   sync.Mutex
	tick int
	rng  *rand.Rand
}

// NewMockReader returns a reader that rests for 3 s and shakes along X for
// 0.8 s at 5 Hz, at a 50 Hz poll rate.
func NewMockReader() *MockReader {
	return &MockReader{
		Gravity:     imu.New(0, -1, 0),
		Axis:        0,
		Amplitude:   1.2,
		PeriodTicks: 10,
		StillTicks:  150,
		BurstTicks:  40,
		Noise:       0.002,
		rng:         rand.New(rand.NewSource(1)),
	}
}

func (m *MockReader) ReadAccel() (imu.Vector3D, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cycle := m.StillTicks + m.BurstTicks
	pos := m.tick % max(cycle, 1)
	m.tick++

	var offset [3]float64
	if pos >= m.StillTicks && m.PeriodTicks > 0 {
		phase := float64(pos-m.StillTicks) / float64(m.PeriodTicks)
		offset[m.Axis%3] = m.Amplitude * math.Sin(2*math.Pi*phase)
	}
	if m.Noise > 0 && m.rng != nil {
		for i := range offset {
			offset[i] += (m.rng.Float64()*2 - 1) * m.Noise
		}
	}
	return m.Gravity.Add(imu.New(offset[0], offset[1], offset[2])), nil
}
