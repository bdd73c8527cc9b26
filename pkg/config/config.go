// Package config loads bochi settings from a YAML file and the environment.
//
// Precedence, highest first: command-line flags, environment variables,
// the config file, built-in defaults. Flags and environment variables are
// applied by the cli package on top of the Config returned by Load.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/bochi/pkg/hierarchy"
)

// Supported drivers.
const (
	DriverADB          = "adb"
	DriverUIAutomator2 = "uiautomator2"
)

const (
	// DefaultFile is read from the working directory when present.
	DefaultFile = "bochi.yaml"
	// EnvConfig names the config file when --config is not given.
	EnvConfig = "BOCHI_CONFIG"
)

// Config holds every setting that can come from a file.
type Config struct {
	Serial         string `yaml:"serial"`
	ADBPath        string `yaml:"adbPath"`
	Driver         string `yaml:"driver"`
	DriverHostPort int    `yaml:"driverHostPort"`
	Timeout        int    `yaml:"timeout"`      // seconds
	PollInterval   int    `yaml:"pollInterval"` // milliseconds
	ScrollSettle   int    `yaml:"scrollSettle"` // milliseconds
	DumpFormat     string `yaml:"dumpFormat"`
	Verbose        bool   `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Driver:         DriverADB,
		DriverHostPort: 7001,
		Timeout:        30,
		PollInterval:   500,
		ScrollSettle:   500,
		DumpFormat:     string(hierarchy.FormatXML),
	}
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load returns Default overlaid with the config file at path. An empty
// path falls back to $BOCHI_CONFIG and then to ./bochi.yaml; only the
// implicit ./bochi.yaml may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects negative durations and unknown driver or format names.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverADB, DriverUIAutomator2:
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverADB, DriverUIAutomator2)
	}
	if c.DriverHostPort <= 0 || c.DriverHostPort > 65535 {
		return fmt.Errorf("invalid driverHostPort %d", c.DriverHostPort)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive, got %d", c.PollInterval)
	}
	if c.ScrollSettle < 0 {
		return fmt.Errorf("scrollSettle must not be negative, got %d", c.ScrollSettle)
	}
	if _, err := hierarchy.ParseFormat(c.DumpFormat); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration returns Timeout as a duration.
func (c Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// PollIntervalDuration returns PollInterval as a duration.
func (c Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// ScrollSettleDuration returns ScrollSettle as a duration.
func (c Config) ScrollSettleDuration() time.Duration {
	return time.Duration(c.ScrollSettle) * time.Millisecond
}

// Format returns the parsed dump format. Validate must have passed.
func (c Config) Format() hierarchy.Format {
	f, _ := hierarchy.ParseFormat(c.DumpFormat)
	return f
}
