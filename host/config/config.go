// Package config loads the bootrtc host tool configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the host tool configuration file
type Config struct {
	// Serial link to the device
	Device      string   `toml:"device"`
	Baud        int      `toml:"baud"`
	ReadTimeout Duration `toml:"read_timeout"`

	// How long to wait for a console reply
	QueryTimeout Duration `toml:"query_timeout"`

	// Simulator settings
	Sim SimConfig `toml:"sim"`

	LogLevel string `toml:"log_level"`
}

// SimConfig configures the host-side boot clock simulator
type SimConfig struct {
	// Clock is "system" or a kernel RTC device such as /dev/rtc0
	Clock string `toml:"clock"`

	// StorePath is the TOML file holding the boot marker
	StorePath string `toml:"store_path"`
}

// Duration is a time.Duration written as "250ms" in TOML
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Defaults
const (
	DefaultDevice       = "/dev/ttyACM0"
	DefaultBaud         = 115200
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultQueryTimeout = 2 * time.Second
	DefaultSimClock     = "system"
	DefaultLogLevel     = "info"
)

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no default can repair
func (c *Config) Validate() error {
	if c.Baud < 0 {
		return fmt.Errorf("baud must not be negative: %d", c.Baud)
	}
	if c.ReadTimeout < 0 || c.QueryTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *Config) {
	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = Duration(DefaultQueryTimeout)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.Sim.Clock == "" {
		cfg.Sim.Clock = DefaultSimClock
	}
	if cfg.Sim.StorePath == "" {
		cfg.Sim.StorePath = DefaultStorePath()
	}
}

// DefaultStorePath is bootrtc/prefs.toml under the user config directory
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bootrtc", "prefs.toml")
}
