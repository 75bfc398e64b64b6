// Package config provides configuration loading and access for the viewer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all viewer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Store     StoreConfig     `yaml:"store"`
	Particles ParticlesConfig `yaml:"particles"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// StoreConfig holds chunk store settings.
type StoreConfig struct {
	// Root is the store URL; empty means take it from the catalog.
	Root         string `yaml:"root"`
	UVariable    string `yaml:"u_variable"`
	VVariable    string `yaml:"v_variable"`
	MaxCacheSize int    `yaml:"max_cache_size"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// ParticlesConfig holds particle engine parameters.
type ParticlesConfig struct {
	Count        int     `yaml:"count"`
	SpeedFactor  float64 `yaml:"speed_factor"`
	FadeOpacity  float64 `yaml:"fade_opacity"`   // trail decay factor in (0,1)
	DropRate     float64 `yaml:"drop_rate"`      // base per-frame recycle probability
	DropRateBump float64 `yaml:"drop_rate_bump"` // extra recycle probability at full speed
	PointSize    int     `yaml:"point_size"`
	Seed         uint64  `yaml:"seed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowSize int `yaml:"window_size"` // samples retained per stats window
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
