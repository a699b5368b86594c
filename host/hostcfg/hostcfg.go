// Package hostcfg loads the wstlctl YAML configuration.
package hostcfg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial          SerialConfig `yaml:"serial"`
	MQTT            MQTTConfig   `yaml:"mqtt"`
	SampleIntervalS int          `yaml:"sample_interval_s"`
}

type SerialConfig struct {
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Parity    string `yaml:"parity"` // N, E or O
}

// MQTTConfig is optional; an empty broker disables export.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// Load reads, defaults and validates the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML document, applies defaults and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.Defaults()
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Defaults() {
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 9600
	}
	if c.Serial.TimeoutMs == 0 {
		c.Serial.TimeoutMs = 500
	}
	if c.Serial.Parity == "" {
		c.Serial.Parity = "N"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "wstl18"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "wstlctl"
	}
	if c.SampleIntervalS == 0 {
		c.SampleIntervalS = 6
	}
}

// Validate checks configuration correctness. It does not mutate c.
func Validate(c *Config) error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	switch c.Serial.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity must be N, E or O, got %q", c.Serial.Parity)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0..2, got %d", c.MQTT.QoS)
	}
	if c.SampleIntervalS < 0 {
		return fmt.Errorf("sample_interval_s must not be negative")
	}
	return nil
}

func (s SerialConfig) Timeout() time.Duration { return time.Duration(s.TimeoutMs) * time.Millisecond }

func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalS) * time.Second
}
