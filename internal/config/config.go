// Package config holds pakar configuration: inference bounds, the rule
// repository location, session storage, and logging. Values come from a
// YAML file layered over defaults, with a few environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all pakar configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Inference engine bounds
	Inference InferenceConfig `yaml:"inference"`

	// Rule repository
	Rules RulesConfig `yaml:"rules"`

	// Session persistence
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InferenceConfig bounds both chaining strategies.
type InferenceConfig struct {
	// Forward chaining stops after this many fixpoint passes even if
	// facts are still being derived.
	MaxIterations int `yaml:"max_iterations"`

	// Backward chaining abandons subgoals nested deeper than this.
	MaxDepth int `yaml:"max_depth"`

	// Diagnoses below this confidence are reported but flagged weak.
	MinConfidence float64 `yaml:"min_confidence"`

	// Certainty assumed when the user gives none.
	DefaultCF float64 `yaml:"default_cf"`
}

// RulesConfig locates the rule repository. An empty path selects the
// embedded knowledge base.
type RulesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// StorageConfig configures session persistence.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pakar",
		Version: "1.0.0",

		Inference: InferenceConfig{
			MaxIterations: 50,
			MaxDepth:      10,
			MinConfidence: 0.5,
			DefaultCF:     0.8,
		},

		Rules: RulesConfig{
			Path:  "",
			Watch: false,
		},

		Storage: StorageConfig{
			DatabasePath: "data/pakar.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file layered over defaults. A
// missing file is not an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects configurations the engines cannot run with.
func (c *Config) Validate() error {
	if c.Inference.MaxIterations < 1 {
		return fmt.Errorf("config: max_iterations must be positive, got %d", c.Inference.MaxIterations)
	}
	if c.Inference.MaxDepth < 1 {
		return fmt.Errorf("config: max_depth must be positive, got %d", c.Inference.MaxDepth)
	}
	if c.Inference.MinConfidence < 0 || c.Inference.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence %v outside [0, 1]", c.Inference.MinConfidence)
	}
	if c.Inference.DefaultCF < 0 || c.Inference.DefaultCF > 1 {
		return fmt.Errorf("config: default_cf %v outside [0, 1]", c.Inference.DefaultCF)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("PAKAR_RULES"); path != "" {
		c.Rules.Path = path
	}
	if path := os.Getenv("PAKAR_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if level := os.Getenv("PAKAR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
