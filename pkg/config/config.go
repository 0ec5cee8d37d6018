// Package config loads and validates rudder configuration from YAML files,
// layering file values over canonical defaults so absent keys keep their
// default behavior.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/entrhq/rudder/pkg/browser"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration for a rudder browser session and the
// shells built on top of it.
type Config struct {
	// Engine selection
	Backend string `yaml:"backend" json:"backend"`
	Variant string `yaml:"variant" json:"variant"`

	// Launch options
	Headless bool `yaml:"headless" json:"headless"`

	// BrowserBinary points the rod backend at an existing Chromium binary.
	// Empty lets the launcher locate or download one.
	BrowserBinary string `yaml:"browser_binary" json:"browser_binary"`

	Viewport ViewportConfig `yaml:"viewport" json:"viewport"`

	// Action policy defaults applied to every session operation
	ActionTimeout time.Duration `yaml:"action_timeout" json:"action_timeout"`
	DialogTimeout time.Duration `yaml:"dialog_timeout" json:"dialog_timeout"`
	LogActions    bool          `yaml:"log_actions" json:"log_actions"`
	ThrowOnFail   bool          `yaml:"throw_on_fail" json:"throw_on_fail"`

	// AllowedURLs restricts shell navigation to matching glob patterns.
	// Empty means unrestricted. The library core never consults this.
	AllowedURLs []string `yaml:"allowed_urls" json:"allowed_urls"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ViewportConfig sizes every page the session opens.
type ViewportConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level controls the minimum level written: debug, info, warn, error
	Level string `yaml:"level" json:"level"`
}

// Default returns the canonical configuration: playwright-driven Chromium,
// headless, 30s advisory timeouts, quiet fail-closed policy.
func Default() Config {
	return Config{
		Backend:  string(browser.BackendPlaywright),
		Variant:  string(browser.VariantChromium),
		Headless: true,
		Viewport: ViewportConfig{
			Width:  1280,
			Height: 720,
		},
		ActionTimeout: browser.DefaultTimeout,
		DialogTimeout: browser.DefaultDialogTimeout,
		LogActions:    false,
		ThrowOnFail:   true,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path and unmarshals it over the defaults, so keys the file
// omits keep their default values. The result is validated before return.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	backend, err := browser.ParseBackend(c.Backend)
	if err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}

	variant, err := browser.ParseVariant(c.Variant)
	if err != nil {
		return fmt.Errorf("invalid variant: %w", err)
	}

	if backend == browser.BackendRod && variant != browser.VariantChromium {
		return fmt.Errorf("%w: rod drives chromium only, got variant %q", browser.ErrUnsupportedBackend, variant)
	}

	if c.ActionTimeout < 0 {
		return fmt.Errorf("action_timeout cannot be negative")
	}

	if c.DialogTimeout < 0 {
		return fmt.Errorf("dialog_timeout cannot be negative")
	}

	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	for _, pattern := range c.AllowedURLs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid allowed_urls pattern %q: %w", pattern, err)
		}
	}

	// Set default level if not specified
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}

	return nil
}
