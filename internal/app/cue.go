package app

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

const (
	cueSampleRate = beep.SampleRate(44100)
	cueDuration   = 120 * time.Millisecond
)

// cueFrequency maps each axis to its own pitch so the axis can be told by ear.
func cueFrequency(a shake.Axis) float64 {
	switch a {
	case shake.AxisY:
		return 660
	case shake.AxisZ:
		return 880
	default:
		return 440
	}
}

// shakeCue plays a short tone per detected shake.
type shakeCue struct {
	mu          sync.Mutex
	initialized bool
}

func (c *shakeCue) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := speaker.Init(cueSampleRate, cueSampleRate.N(time.Second/10)); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// cueStreamer builds the tone for one shake: a sine burst on the axis pitch.
func cueStreamer(a shake.Axis) (beep.Streamer, error) {
	sine, err := generators.SineTone(cueSampleRate, cueFrequency(a))
	if err != nil {
		return nil, err
	}
	return beep.Take(cueSampleRate.N(cueDuration), sine), nil
}

func (c *shakeCue) Play(a shake.Axis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil
	}
	s, err := cueStreamer(a)
	if err != nil {
		return err
	}
	speaker.Play(s)
	return nil
}

func (c *shakeCue) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		speaker.Close()
		c.initialized = false
	}
}
