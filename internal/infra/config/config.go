// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Screen    ScreenConfig              `yaml:"screen"`
	Backend   BackendConfig             `yaml:"backend"`
	Playback  PlaybackConfig            `yaml:"playback"`
	Server    ServerConfig              `yaml:"server"`
	Admin     AdminConfig               `yaml:"admin"`
	Renderers map[string]RendererConfig `yaml:"renderers"`
}

// ScreenConfig identifies the screen whose playlists are played.
type ScreenConfig struct {
	Key string `yaml:"key" validate:"required"`
}

// BackendConfig represents the signage backend configuration.
type BackendConfig struct {
	BaseURL   string `yaml:"base_url" default:"https://test.onsignage.com" validate:"required,url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=100,lte=120000"`
	APIToken  string `yaml:"api_token"`
}

// PlaybackConfig represents playback timing configuration.
type PlaybackConfig struct {
	TickIntervalMs int   `yaml:"tick_interval_ms" default:"16" validate:"gte=1,lte=1000"`
	Autoplay       *bool `yaml:"autoplay" default:"true"`
}

// ServerConfig represents the control server configuration.
type ServerConfig struct {
	Addr    string `yaml:"addr" default:":8080"`
	Enabled *bool  `yaml:"enabled" default:"true"`
}

// AdminConfig represents control API authentication.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// RendererConfig represents one presentation renderer.
type RendererConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SCREEN_KEY"); v != "" {
		c.Screen.Key = v
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_API_TOKEN"); v != "" {
		c.Backend.APIToken = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.ServerEnabled() && c.Admin.Token == "" {
		return errors.New("admin.token is required when the control server is enabled")
	}

	return nil
}

// ServerEnabled reports whether the control server should run.
func (c *Config) ServerEnabled() bool {
	return c.Server.Enabled == nil || *c.Server.Enabled
}

// Autoplay reports whether playback starts as soon as items are loaded.
func (c *Config) Autoplay() bool {
	return c.Playback.Autoplay == nil || *c.Playback.Autoplay
}

// TickInterval returns the playback tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Playback.TickIntervalMs) * time.Millisecond
}

// BackendTimeout returns the HTTP timeout for backend calls.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutMs) * time.Millisecond
}

// IsRendererEnabled checks if a renderer is enabled.
func (c *Config) IsRendererEnabled(name string) bool {
	if r, ok := c.Renderers[name]; ok {
		return r.Enabled
	}
	return false
}

// EnabledRenderers returns the settings of every enabled renderer by name.
func (c *Config) EnabledRenderers() map[string]map[string]any {
	settings := make(map[string]map[string]any)
	for name, r := range c.Renderers {
		if c.IsRendererEnabled(name) {
			settings[name] = r.Settings
		}
	}
	return settings
}
