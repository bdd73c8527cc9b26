package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/bochi/pkg/hierarchy"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DriverADB, cfg.Driver)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 500*time.Millisecond, cfg.PollIntervalDuration())
	assert.Equal(t, 500*time.Millisecond, cfg.ScrollSettleDuration())
	assert.Equal(t, hierarchy.FormatXML, cfg.Format())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "bochi.yaml", `
serial: emulator-5554
driver: uiautomator2
driverHostPort: 7002
timeout: 10
dumpFormat: yaml
verbose: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "emulator-5554", cfg.Serial)
	assert.Equal(t, DriverUIAutomator2, cfg.Driver)
	assert.Equal(t, 7002, cfg.DriverHostPort)
	assert.Equal(t, 10, cfg.Timeout)
	assert.Equal(t, hierarchy.FormatYAML, cfg.Format())
	assert.True(t, cfg.Verbose)
	// Unset keys keep their defaults.
	assert.Equal(t, 500, cfg.PollInterval)
	assert.Equal(t, 500, cfg.ScrollSettle)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "bochi.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeFile(t, "custom.yaml", "timeout: 5\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Timeout)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeFile(t, "bochi.yaml", "timout: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timout")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Driver = "appium" }},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"negative scroll settle", func(c *Config) { c.ScrollSettle = -5 }},
		{"bad port", func(c *Config) { c.DriverHostPort = 70000 }},
		{"bad format", func(c *Config) { c.DumpFormat = "toml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateZeroTimeout(t *testing.T) {
	cfg := Default()
	cfg.Timeout = 0
	cfg.ScrollSettle = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	path := writeFile(t, ".env", "BOCHI_TEST_SERIAL=from-file\nBOCHI_TEST_DRIVER=uiautomator2\n")
	t.Setenv("BOCHI_TEST_SERIAL", "from-env")
	t.Setenv("BOCHI_TEST_DRIVER", "")
	os.Unsetenv("BOCHI_TEST_DRIVER")

	require.NoError(t, LoadEnv(path))
	t.Cleanup(func() { os.Unsetenv("BOCHI_TEST_DRIVER") })

	assert.Equal(t, "from-env", os.Getenv("BOCHI_TEST_SERIAL"))
	assert.Equal(t, "uiautomator2", os.Getenv("BOCHI_TEST_DRIVER"))
}

func TestLoadEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}
