// Package config holds the browser and process configuration for browsermux,
// including device profile resolution and partial config updates.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ErrUnknownDevice is returned when a config update names a device profile
// that is not in the profile table.
var ErrUnknownDevice = fmt.Errorf("unknown device")

// Viewport represents browser viewport dimensions in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Geolocation is an emulated GPS position.
type Geolocation struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Accuracy  float64 `yaml:"accuracy,omitempty"`
}

// BrowserConfig configures how a session's browser context is created.
// Optional fields are pointers so a partial update can distinguish "unset"
// from an explicit zero value.
type BrowserConfig struct {
	// Headless controls whether the browser runs without a visible window.
	// Nil defers to the environment introspector's recommendation.
	Headless *bool `yaml:"headless,omitempty"`

	// Viewport sets the context viewport size.
	Viewport *Viewport `yaml:"viewport,omitempty"`

	// UserAgent overrides the default user agent string.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Device selects a device profile by name. A device profile overrides
	// Viewport and UserAgent.
	Device string `yaml:"device,omitempty"`

	// Geolocation emulates a GPS position for the context.
	Geolocation *Geolocation `yaml:"geolocation,omitempty"`

	// Locale is a BCP 47 language tag (e.g. "de-DE").
	Locale string `yaml:"locale,omitempty"`

	// TimezoneID is an IANA timezone (e.g. "Europe/Berlin").
	TimezoneID string `yaml:"timezone,omitempty"`

	// ColorScheme is "light", "dark", or "no-preference".
	ColorScheme string `yaml:"color_scheme,omitempty"`

	// Permissions are granted to every origin in the context
	// (e.g. "geolocation", "notifications").
	Permissions []string `yaml:"permissions,omitempty"`

	// AllowedOrigins, when non-empty, switches request interception to
	// default-deny: only matching origins pass through.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`

	// BlockedOrigins are aborted regardless of the allow list.
	BlockedOrigins []string `yaml:"blocked_origins,omitempty"`

	// TraceDir enables trace capture into the given directory.
	TraceDir string `yaml:"trace_dir,omitempty"`

	// OutputDir is where videos and other session artifacts land.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// Config is the top-level process configuration.
type Config struct {
	LogLevel    string        `yaml:"log_level"`
	MaxSessions int           `yaml:"max_sessions"`
	Browser     BrowserConfig `yaml:"browser"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		MaxSessions: DefaultMaxSessions,
		Browser: BrowserConfig{
			Viewport: &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Clone returns a deep copy of the browser config. Sessions mutate copies,
// never a shared instance.
func (c BrowserConfig) Clone() BrowserConfig {
	out := c
	if c.Headless != nil {
		h := *c.Headless
		out.Headless = &h
	}
	if c.Viewport != nil {
		v := *c.Viewport
		out.Viewport = &v
	}
	if c.Geolocation != nil {
		g := *c.Geolocation
		out.Geolocation = &g
	}
	out.Permissions = append([]string(nil), c.Permissions...)
	out.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	out.BlockedOrigins = append([]string(nil), c.BlockedOrigins...)
	return out
}

// Update overlays the non-zero fields of changes onto a copy of the config
// and returns the copy. If changes selects a device profile the profile's
// viewport and user agent win over any individually supplied values.
// Returns ErrUnknownDevice for an unrecognized device name.
func (c BrowserConfig) Update(changes BrowserConfig) (BrowserConfig, error) {
	out := c.Clone()

	if err := mergo.Merge(&out, changes, mergo.WithOverride); err != nil {
		return BrowserConfig{}, fmt.Errorf("failed to merge config changes: %w", err)
	}

	if changes.Device != "" {
		profile, ok := LookupDevice(changes.Device)
		if !ok {
			return BrowserConfig{}, fmt.Errorf("%w: %q", ErrUnknownDevice, changes.Device)
		}
		vp := profile.Viewport
		out.Viewport = &vp
		out.UserAgent = profile.UserAgent
	}

	return out, nil
}

// Default values shared across the process.
const (
	DefaultMaxSessions    = 20
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)
