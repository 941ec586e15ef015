package gesture

import (
	"sync/atomic"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

// Observer receives the service's events. Calls for one tick arrive in
// order: ReadingChanged first, then ShakeDetected if the tick fired a
// gesture. Calls never overlap.
type Observer interface {
	ReadingChanged(r accel.Reading)
	ShakeDetected(g shake.Gesture)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnReading func(accel.Reading)
	OnShake   func(shake.Gesture)
}

func (f ObserverFuncs) ReadingChanged(r accel.Reading) {
	if f.OnReading != nil {
		f.OnReading(r)
	}
}

func (f ObserverFuncs) ShakeDetected(g shake.Gesture) {
	if f.OnShake != nil {
		f.OnShake(g)
	}
}

// ChannelObserver buffers events for consumers that poll. Sends never
// block the sensor goroutine; events that do not fit are counted and
// dropped.
type ChannelObserver struct {
	Readings chan accel.Reading
	Gestures chan shake.Gesture

	droppedReadings atomic.Uint64
	droppedGestures atomic.Uint64
}

func NewChannelObserver(readingBuf, gestureBuf int) *ChannelObserver {
	return &ChannelObserver{
		Readings: make(chan accel.Reading, readingBuf),
		Gestures: make(chan shake.Gesture, gestureBuf),
	}
}

func (c *ChannelObserver) ReadingChanged(r accel.Reading) {
	select {
	case c.Readings <- r:
	default:
		c.droppedReadings.Add(1)
	}
}

func (c *ChannelObserver) ShakeDetected(g shake.Gesture) {
	select {
	case c.Gestures <- g:
	default:
		c.droppedGestures.Add(1)
	}
}

// Dropped returns how many readings and gestures did not fit the buffers.
func (c *ChannelObserver) Dropped() (readings, gestures uint64) {
	return c.droppedReadings.Load(), c.droppedGestures.Load()
}
