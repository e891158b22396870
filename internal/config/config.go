// internal/config/config.go

// Package config loads the YAML configuration shared by the rex commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMetricsAddr   = ":9090"
	DefaultMetricsPath   = "/metrics"
	DefaultWatchDebounce = 250 * time.Millisecond
	DefaultMaxRules      = 10000

	// MaxRulesUnlimited turns the max_rules guard off. An omitted or zero max_rules
	// gets DefaultMaxRules.
	MaxRulesUnlimited = -1
)

// Config is the root configuration document.
type Config struct {
	Log      LogConfig       `yaml:"log"`
	RuleSets []RuleSetConfig `yaml:"rulesets" validate:"dive"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Watch    WatchConfig     `yaml:"watch"`
	// MaxRules rejects loaded rule sets with more rules than this; -1 disables the check.
	MaxRules int `yaml:"max_rules" validate:"gte=-1"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// RuleSetConfig binds a rule document to a registry URI.
type RuleSetConfig struct {
	URI  string `yaml:"uri" validate:"required"`
	Path string `yaml:"path" validate:"required"`
	// Format overrides detection from the file extension.
	Format     string            `yaml:"format" validate:"omitempty,oneof=json yaml yml xml"`
	Properties map[string]string `yaml:"properties"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required"`
	Path    string `yaml:"path" validate:"startswith=/"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

var configValidate = validator.New()

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML configuration, then defaults and validates it.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultWatchDebounce
	}
	if c.MaxRules == 0 {
		c.MaxRules = DefaultMaxRules
	}
}

// Validate checks field constraints and that rule set URIs are unique.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(c.RuleSets))
	var errs []error
	for _, rs := range c.RuleSets {
		if seen[rs.URI] {
			errs = append(errs, fmt.Errorf("duplicate rule set uri %q", rs.URI))
		}
		seen[rs.URI] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
