package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/shake"
)

// Tuning is the optional YAML profile holding the pipeline and detector
// constants. Keys missing from the file keep their defaults.
type Tuning struct {
	Pipeline accel.Settings   `yaml:"pipeline"`
	Shake    shake.Thresholds `yaml:"shake"`
}

// DefaultTuning returns the reference tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Pipeline: accel.DefaultSettings(),
		Shake:    shake.DefaultThresholds(),
	}
}

// LoadTuning reads a tuning profile. An empty path returns the defaults.
//
// Unknown fields are rejected to catch typos.
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return DefaultTuning(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(b)
}

// ParseTuning decodes a tuning profile over the defaults and validates it.
func ParseTuning(b []byte) (Tuning, error) {
	t := DefaultTuning()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("decode tuning yaml: %w", err)
	}

	if err := t.Pipeline.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning pipeline: %w", err)
	}
	if err := t.Shake.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning shake: %w", err)
	}
	return t, nil
}
