package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# only comments\n\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def := Default()
	if *cfg != *def {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.SampleDuration().Milliseconds() != 20 {
		t.Fatalf("expected 20ms sample interval, got %v", cfg.SampleDuration())
	}
}

func TestParseOverrides(t *testing.T) {
	in := `
MQTT_BROKER = tcp://broker:1883
SENSOR_SOURCE=Serial
SERIAL_PORT=/dev/ttyACM0
SERIAL_BAUD_RATE=57600
IMU_ACCEL_RANGE=2
SAMPLE_INTERVAL=10
AUDIO_ENABLED=false
TOPIC_GESTURE=lab/shake
`
	cfg, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Fatalf("broker = %q", cfg.MQTTBroker)
	}
	if cfg.SensorSource != SourceSerial || cfg.SerialPort != "/dev/ttyACM0" || cfg.SerialBaudRate != 57600 {
		t.Fatalf("serial settings not applied: %+v", cfg)
	}
	if cfg.IMUAccelRange != 2 || cfg.SampleInterval != 10 || cfg.AudioEnabled {
		t.Fatalf("numeric settings not applied: %+v", cfg)
	}
	if cfg.TopicGesture != "lab/shake" {
		t.Fatalf("topic = %q", cfg.TopicGesture)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "NOT_A_KEY=1",
		"missing equal":  "MQTT_BROKER",
		"bad range":      "IMU_ACCEL_RANGE=4",
		"bad source":     "SENSOR_SOURCE=gyro",
		"bad interval":   "SAMPLE_INTERVAL=0",
		"bad bool":       "AUDIO_ENABLED=maybe",
		"empty broker":   "MQTT_BROKER=",
		"serial no port": "SENSOR_SOURCE=serial\nSERIAL_PORT=",
	}
	for name, in := range cases {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected error for %q", name, in)
		}
	}

	_, err := Parse(strings.NewReader("NOT_A_KEY=1"))
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gestures_config.txt")
	if err := os.WriteFile(path, []byte("SENSOR_SOURCE=mock\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SensorSource != SourceMock {
		t.Fatalf("source = %q", cfg.SensorSource)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
