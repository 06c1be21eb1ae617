// Package config reads cookbook settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/signal"
)

// Supported device kinds.
const (
	DevicePortAudio = "portaudio"
	DeviceOto       = "oto"
	DeviceClock     = "clock"
	DeviceWav       = "wav"
	DeviceMp3       = "mp3"
)

// ErrInvalid is returned when config contains values that cannot be used.
var ErrInvalid = errors.New("invalid config")

type (
	// Config describes a cookbook session: which recipe to build, where to
	// render it and initial parameter values.
	Config struct {
		Recipe     string `yaml:"recipe"`
		Device     string `yaml:"device"`
		DeviceName string `yaml:"device_name,omitempty"`
		// HighLatency selects high latency parameters of portaudio device.
		HighLatency bool `yaml:"high_latency,omitempty"`
		// Source is a wav or mp3 file played by the recipe. Synthesized
		// loop is used when empty.
		Source string `yaml:"source,omitempty"`
		// Output is a file path for wav and mp3 devices.
		Output   string        `yaml:"output,omitempty"`
		BitDepth int           `yaml:"bit_depth,omitempty"`
		BitRate  int           `yaml:"bit_rate,omitempty"`
		Duration time.Duration `yaml:"duration,omitempty"`

		SampleRate        int     `yaml:"sample_rate"`
		Channels          int     `yaml:"channels"`
		BlockSize         int     `yaml:"block_size"`
		DeadlineTolerance float64 `yaml:"deadline_tolerance,omitempty"`

		Params map[string]float64 `yaml:"params,omitempty"`
		// Ramp is applied when params are changed at runtime. Zero keeps
		// recipe defaults.
		Ramp time.Duration `yaml:"ramp,omitempty"`
	}
)

// Default returns config with default values.
func Default() *Config {
	return &Config{
		Recipe:            "balancer",
		Device:            DevicePortAudio,
		BitDepth:          int(signal.BitDepth16),
		BitRate:           192,
		Duration:          10 * time.Second,
		SampleRate:        44100,
		Channels:          2,
		BlockSize:         512,
		DeadlineTolerance: 1,
	}
}

// Load reads YAML file on top of default values. Empty path returns
// defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// Format returns audio format of the config.
func (c *Config) Format() audiograph.Format {
	return audiograph.Format{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BlockSize:  c.BlockSize,
	}
}

// Validate checks if config can be used to start a session.
func (c *Config) Validate() error {
	if c.Recipe == "" {
		return fmt.Errorf("%w: recipe is not set", ErrInvalid)
	}
	if err := c.Format().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.DeadlineTolerance < 0 {
		return fmt.Errorf("%w: negative deadline tolerance %g", ErrInvalid, c.DeadlineTolerance)
	}
	if c.Ramp < 0 {
		return fmt.Errorf("%w: negative ramp %v", ErrInvalid, c.Ramp)
	}
	switch strings.ToLower(c.Device) {
	case DevicePortAudio, DeviceOto:
	case DeviceClock:
		if c.Duration < 0 {
			return fmt.Errorf("%w: negative duration %v", ErrInvalid, c.Duration)
		}
	case DeviceWav:
		switch signal.BitDepth(c.BitDepth) {
		case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		default:
			return fmt.Errorf("%w: unsupported wav bit depth %d", ErrInvalid, c.BitDepth)
		}
		return c.validateFile()
	case DeviceMp3:
		if c.BitRate <= 0 {
			return fmt.Errorf("%w: mp3 bit rate must be positive", ErrInvalid)
		}
		return c.validateFile()
	default:
		return fmt.Errorf("%w: unknown device %q", ErrInvalid, c.Device)
	}
	return nil
}

func (c *Config) validateFile() error {
	if c.Output == "" {
		return fmt.Errorf("%w: output file is required for %s device", ErrInvalid, c.Device)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: %s device requires positive duration", ErrInvalid, c.Device)
	}
	return nil
}
