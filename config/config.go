// Package config loads roya's settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all roya configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Display DisplayConfig `yaml:"display"`
	Upload  UploadConfig  `yaml:"upload"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig points at the photo backend.
type APIConfig struct {
	BaseURL      string `yaml:"base_url"`
	PhotosPath   string `yaml:"photos_path"`
	UploadPath   string `yaml:"upload_path"`
	Token        string `yaml:"token"`
	FetchTimeout string `yaml:"fetch_timeout"` // "" or "0" means no timeout
}

// DisplayConfig controls how the history is grouped and titled.
type DisplayConfig struct {
	Zone        string `yaml:"zone"`   // IANA name; "" or "Local" uses the system zone
	Locale      string `yaml:"locale"` // BCP 47 tag, e.g. "es-MX"
	NewestFirst bool   `yaml:"newest_first"`
}

// UploadConfig configures the drop-folder watcher and upload command.
type UploadConfig struct {
	Stage       string `yaml:"stage"`
	WatchDir    string `yaml:"watch_dir"`
	Concurrency int    `yaml:"concurrency"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://127.0.0.1:8000",
			PhotosPath: "/images",
			UploadPath: "/upload",
		},
		Display: DisplayConfig{
			Zone:   "Local",
			Locale: "en",
		},
		Upload: UploadConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "roya.log",
		},
	}
}

// DefaultPath returns the per-user config location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "roya.yaml"
	}
	return filepath.Join(dir, "roya", "config.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied last. The result is not
// validated; callers apply their own overrides and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	// The file may carry the backend token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ROYA_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("ROYA_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("ROYA_DISPLAY_ZONE"); v != "" {
		c.Display.Zone = v
	}
	if v := os.Getenv("ROYA_LOCALE"); v != "" {
		c.Display.Locale = v
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if _, err := c.FetchTimeout(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Upload.Concurrency < 0 {
		return fmt.Errorf("upload.concurrency must not be negative, got %d", c.Upload.Concurrency)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q (must be debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}

// FetchTimeout parses api.fetch_timeout. Empty means no timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	if c.API.FetchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.API.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api.fetch_timeout %q: %w", c.API.FetchTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid api.fetch_timeout %q: negative", c.API.FetchTimeout)
	}
	return d, nil
}

// Location resolves display.zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Display.Zone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Display.Zone)
	if err != nil {
		return nil, fmt.Errorf("invalid display.zone %q: %w", c.Display.Zone, err)
	}
	return loc, nil
}
