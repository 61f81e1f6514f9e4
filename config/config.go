// Package config loads simulator configuration from yaml files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pipelined/subsim"
	"github.com/pipelined/subsim/encode"
	"github.com/pipelined/subsim/projector"
	"github.com/pipelined/subsim/raster"
	"github.com/pipelined/subsim/signal"
	"github.com/pipelined/subsim/transport"
)

// DefaultChannels is the number of signal channels.
const DefaultChannels = 30

// Config is the complete simulator configuration.
type Config struct {
	Loop      LoopConfig      `yaml:"loop"`
	Projector ProjectorConfig `yaml:"projector"`
	Display   DisplayConfig   `yaml:"display"`
	Transport TransportConfig `yaml:"transport"`
	Record    RecordConfig    `yaml:"record"`
	View      ViewConfig      `yaml:"view"`
}

// LoopConfig contains tick settings.
type LoopConfig struct {
	Channels int           `yaml:"channels"`
	Width    int           `yaml:"width"`    // raster and trace columns
	Interval time.Duration `yaml:"interval"` // minimal delay between tick starts
}

// ProjectorConfig contains random projection settings.
type ProjectorConfig struct {
	SpatialGain float64 `yaml:"spatial_gain"`
	NoiseGain   float64 `yaml:"noise_gain"`
	Seed        int64   `yaml:"seed"` // 0 means seeded from time
}

// DisplayConfig contains raster settings.
type DisplayConfig struct {
	Gain     float64 `yaml:"gain"`
	Truncate string  `yaml:"truncate"` // wrap, saturate
}

// TransportConfig contains UDP destinations.
type TransportConfig struct {
	Host       string `yaml:"host"`
	InputPort  int    `yaml:"input_port"`
	SignalPort int    `yaml:"signal_port"`
	TOS        int    `yaml:"tos"`
}

// RecordConfig contains capture sink settings. Empty path disables it.
type RecordConfig struct {
	Path     string `yaml:"path"`
	BitDepth int    `yaml:"bit_depth"`
}

// ViewConfig contains http view settings. Empty listen address disables it.
type ViewConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			Channels: DefaultChannels,
			Width:    subsim.DefaultWidth,
			Interval: subsim.DefaultInterval,
		},
		Projector: ProjectorConfig{
			SpatialGain: projector.DefaultSpatialGain,
			NoiseGain:   projector.DefaultNoiseGain,
		},
		Display: DisplayConfig{
			Gain:     raster.DefaultGain,
			Truncate: encode.Wrap.String(),
		},
		Transport: TransportConfig{
			Host:       transport.DefaultHost,
			InputPort:  transport.DefaultInputPort,
			SignalPort: transport.DefaultSignalPort,
		},
		Record: RecordConfig{
			BitDepth: int(signal.BitDepth16),
		},
		View: ViewConfig{
			Listen: "127.0.0.1:8080",
		},
	}
}

// Load reads yaml file on top of default values and validates result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes yaml on top of default values and validates result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Marshal encodes configuration into yaml.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks that all values are in range.
func (c *Config) Validate() error {
	if c.Loop.Channels <= 0 {
		return fmt.Errorf("loop.channels must be positive: %d", c.Loop.Channels)
	}
	if c.Loop.Width <= 0 {
		return fmt.Errorf("loop.width must be positive: %d", c.Loop.Width)
	}
	if c.Loop.Interval <= 0 {
		return fmt.Errorf("loop.interval must be positive: %v", c.Loop.Interval)
	}
	if _, err := encode.ParseTruncatePolicy(c.Display.Truncate); err != nil {
		return fmt.Errorf("display.truncate: %w", err)
	}
	if err := validatePort("transport.input_port", c.Transport.InputPort); err != nil {
		return err
	}
	if err := validatePort("transport.signal_port", c.Transport.SignalPort); err != nil {
		return err
	}
	if c.Transport.TOS < 0 || c.Transport.TOS > 255 {
		return fmt.Errorf("transport.tos must fit a byte: %d", c.Transport.TOS)
	}
	if c.Record.Path != "" {
		switch signal.BitDepth(c.Record.BitDepth) {
		case signal.BitDepth16, signal.BitDepth32:
		default:
			return fmt.Errorf("record.bit_depth must be 16 or 32: %d", c.Record.BitDepth)
		}
	}
	return nil
}

// TruncatePolicy returns parsed truncation policy.
func (c *Config) TruncatePolicy() encode.TruncatePolicy {
	p, _ := encode.ParseTruncatePolicy(c.Display.Truncate)
	return p
}

// TransportConfig returns configuration of transport sockets.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		Host:       c.Transport.Host,
		InputPort:  c.Transport.InputPort,
		SignalPort: c.Transport.SignalPort,
		TOS:        c.Transport.TOS,
	}
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be in range 1-65535: %d", name, port)
	}
	return nil
}
