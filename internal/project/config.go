// Package project loads rowan.yaml, the project-level configuration for
// the middle-end: strictness of top-level effect rows, single-shot effect
// restrictions, and what the driver emits.
package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level rowan.yaml configuration.
type Config struct {
	// StrictEffects makes labels surviving to the top level of a unit a
	// compile error instead of a run-time UnhandledEffect.
	StrictEffects bool `yaml:"strict_effects"`

	// SingleShot lists effects whose resumptions may be used at most once,
	// in addition to any declared single-shot in the unit itself.
	SingleShot []string `yaml:"single_shot,omitempty"`

	// Emit selects the driver output: "types" or "ir".
	Emit string `yaml:"emit,omitempty"`

	// Trace enables step tracing in the reference interpreter.
	Trace bool `yaml:"trace,omitempty"`
}

// Default returns the configuration used when no rowan.yaml is present.
func Default() *Config {
	return &Config{Emit: "ir"}
}

// Load reads and validates a rowan.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}
	switch cfg.Emit {
	case "", "ir", "types":
	default:
		return nil, fmt.Errorf("parsing project config: unknown emit target %q", cfg.Emit)
	}
	if cfg.Emit == "" {
		cfg.Emit = "ir"
	}
	return cfg, nil
}

// IsSingleShot reports whether the named effect is restricted by config.
func (c *Config) IsSingleShot(label string) bool {
	for _, l := range c.SingleShot {
		if l == label {
			return true
		}
	}
	return false
}
