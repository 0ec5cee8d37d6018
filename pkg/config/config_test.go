package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rudder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "playwright", cfg.Backend)
	assert.Equal(t, "chromium", cfg.Variant)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 1280, cfg.Viewport.Width)
	assert.Equal(t, 720, cfg.Viewport.Height)
	assert.Equal(t, 30*time.Second, cfg.ActionTimeout)
	assert.Equal(t, 30*time.Second, cfg.DialogTimeout)
	assert.False(t, cfg.LogActions)
	assert.True(t, cfg.ThrowOnFail)
	assert.Empty(t, cfg.AllowedURLs)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
backend: rod
headless: false
action_timeout: 5s
allowed_urls:
  - "https://example.com/*"
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rod", cfg.Backend)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 5*time.Second, cfg.ActionTimeout)
	assert.Equal(t, []string{"https://example.com/*"}, cfg.AllowedURLs)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Keys the file omits keep their defaults.
	assert.Equal(t, "chromium", cfg.Variant)
	assert.Equal(t, 30*time.Second, cfg.DialogTimeout)
	assert.True(t, cfg.ThrowOnFail)
	assert.False(t, cfg.LogActions)
	assert.Equal(t, 1280, cfg.Viewport.Width)
}

func TestLoadExplicitFalseSurvives(t *testing.T) {
	path := writeConfig(t, "throw_on_fail: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.ThrowOnFail)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "backend: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErr       bool
		unsupportedIs bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "rod with chromium is valid",
			mutate: func(c *Config) { c.Backend = "rod" },
		},
		{
			name:          "unknown backend",
			mutate:        func(c *Config) { c.Backend = "selenium" },
			wantErr:       true,
			unsupportedIs: true,
		},
		{
			name:          "unknown variant",
			mutate:        func(c *Config) { c.Variant = "netscape" },
			wantErr:       true,
			unsupportedIs: true,
		},
		{
			name: "rod refuses firefox",
			mutate: func(c *Config) {
				c.Backend = "rod"
				c.Variant = "firefox"
			},
			wantErr:       true,
			unsupportedIs: true,
		},
		{
			name:    "negative action timeout",
			mutate:  func(c *Config) { c.ActionTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative dialog timeout",
			mutate:  func(c *Config) { c.DialogTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative viewport",
			mutate:  func(c *Config) { c.Viewport.Width = -1 },
			wantErr: true,
		},
		{
			name:    "malformed allowlist pattern",
			mutate:  func(c *Config) { c.AllowedURLs = []string{"https://[unclosed"} },
			wantErr: true,
		},
		{
			name:    "unknown logging level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.unsupportedIs {
				assert.ErrorIs(t, err, browser.ErrUnsupportedBackend)
			}
		})
	}
}

func TestValidateFillsEmptyLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
}
