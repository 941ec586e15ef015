package accel

import "github.com/relabs-tech/inertial_gestures/internal/imu"

// SampleWindow is a fixed-capacity circular buffer of vectors with a
// running sum, so the rolling average costs O(1) per push.
type SampleWindow struct {
	samples []imu.Vector3D
	pos     int
	sum     imu.Vector3D
}

// NewSampleWindow creates a window of the given capacity filled with zero
// vectors. capacity must be positive.
func NewSampleWindow(capacity int) *SampleWindow {
	return &SampleWindow{samples: make([]imu.Vector3D, capacity)}
}

// Seed overwrites every slot with v, resetting the sum to capacity·v.
func (w *SampleWindow) Seed(v imu.Vector3D) {
	for i := range w.samples {
		w.samples[i] = v
	}
	w.pos = 0
	w.sum = v.Scale(float64(len(w.samples)))
}

// Push evicts the oldest sample, stores v in its slot and returns the new
// average.
func (w *SampleWindow) Push(v imu.Vector3D) imu.Vector3D {
	w.sum = w.sum.Add(v).Sub(w.samples[w.pos])
	w.samples[w.pos] = v
	w.pos++
	if w.pos >= len(w.samples) {
		w.pos = 0
	}
	return w.Average()
}

func (w *SampleWindow) Sum() imu.Vector3D { return w.sum }

func (w *SampleWindow) Average() imu.Vector3D {
	return w.sum.Div(float64(len(w.samples)))
}

func (w *SampleWindow) Len() int { return len(w.samples) }
