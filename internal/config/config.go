package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrUnknownKey is returned for config lines whose key is not recognized.
var ErrUnknownKey = errors.New("unknown config key")

// Sensor source names accepted by SENSOR_SOURCE.
const (
	SourceMPU9250 = "mpu9250"
	SourceSerial  = "serial"
	SourceMock    = "mock"
	SourceNone    = "none"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDProducer  string
	MQTTClientIDConsole   string
	MQTTClientIDWeb       string
	MQTTClientIDDisplay   string
	MQTTClientIDDashboard string

	// Topics
	TopicReading   string
	TopicGesture   string
	TopicStatus    string
	TopicCalibrate string

	// Sensor
	SensorSource   string
	IMUSPIDevice   string
	IMUCSPin       string
	SerialPort     string
	SerialBaudRate int

	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Timing
	SampleInterval      int // milliseconds
	ReadingPublishEvery int // publish every Nth reading
	ConsoleLogInterval  int // milliseconds

	// Files
	CalibrationFile string
	TuningFile      string // optional YAML tuning profile

	LogLevel string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds

	// Dashboard
	AudioEnabled bool
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get().
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDProducer:  "gestures-producer",
		MQTTClientIDConsole:   "gestures-console",
		MQTTClientIDWeb:       "gestures-web",
		MQTTClientIDDisplay:   "gestures-display",
		MQTTClientIDDashboard: "gestures-dashboard",
		TopicReading:          "gestures/reading",
		TopicGesture:          "gestures/shake",
		TopicStatus:           "gestures/status",
		TopicCalibrate:        "gestures/calibrate",
		SensorSource:          SourceMPU9250,
		IMUSPIDevice:          "/dev/spidev0.0",
		IMUCSPin:              "GPIO8",
		SerialPort:            "/dev/ttyUSB0",
		SerialBaudRate:        115200,
		SampleInterval:        20,
		ReadingPublishEvery:   5,
		ConsoleLogInterval:    500,
		CalibrationFile:       "./calibration.json",
		LogLevel:              "info",
		WebServerPort:         8080,
		DisplayI2CBus:         "",
		DisplayUpdateInterval: 200,
		AudioEnabled:          true,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse reads KEY=VALUE lines over the defaults. Empty lines and lines
// starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_DASHBOARD":
		c.MQTTClientIDDashboard = value

	// Topics
	case "TOPIC_READING":
		c.TopicReading = value
	case "TOPIC_GESTURE":
		c.TopicGesture = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_CALIBRATE":
		c.TopicCalibrate = value

	// Sensor
	case "SENSOR_SOURCE":
		switch strings.ToLower(value) {
		case SourceMPU9250, SourceSerial, SourceMock, SourceNone:
			c.SensorSource = strings.ToLower(value)
		default:
			return fmt.Errorf("SENSOR_SOURCE must be one of mpu9250, serial, mock, none, got %q", value)
		}
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value, 1200, 4000000)

	// Timing
	case "SAMPLE_INTERVAL":
		c.SampleInterval, err = parseInt(key, value, 1, 1000)
	case "READING_PUBLISH_EVERY":
		c.ReadingPublishEvery, err = parseInt(key, value, 0, 1000)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value, 1, 60000)

	// Files
	case "CALIBRATION_FILE":
		c.CalibrationFile = value
	case "TUNING_FILE":
		c.TuningFile = value

	case "LOG_LEVEL":
		c.LogLevel = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 10, 60000)

	case "AUDIO_ENABLED":
		c.AudioEnabled, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid AUDIO_ENABLED %q: %w", value, err)
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return err
}

// validate checks that the fields the selected source needs are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicReading == "" || c.TopicGesture == "" || c.TopicStatus == "" || c.TopicCalibrate == "" {
		return fmt.Errorf("TOPIC_READING, TOPIC_GESTURE, TOPIC_STATUS and TOPIC_CALIBRATE are required")
	}
	switch c.SensorSource {
	case SourceMPU9250:
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for SENSOR_SOURCE=mpu9250")
		}
	case SourceSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for SENSOR_SOURCE=serial")
		}
	}
	if c.CalibrationFile == "" {
		return fmt.Errorf("CALIBRATION_FILE is required")
	}
	return nil
}

// SampleDuration is SAMPLE_INTERVAL as a duration.
func (c *Config) SampleDuration() time.Duration {
	return time.Duration(c.SampleInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
