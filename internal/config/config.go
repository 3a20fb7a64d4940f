package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mojifix configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Workspace is the directory relative target names resolve against.
	Workspace string `yaml:"workspace"`

	// Files is the ordered list of targets a repair pass processes.
	Files []string `yaml:"files"`

	// Strict makes the process exit non-zero when any target errors.
	Strict bool `yaml:"strict"`

	// Watch mode settings
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long the watcher waits after the last write event
	// before re-running the repair pass.
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultFiles is the stock target list: the report generators that came
// back mangled from the CP437 round-trip.
var DefaultFiles = []string{
	"diagrams_report_from_git.js",
	"diagrams_report_working.js",
	"temp_old_report_gen.rb",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:      "mojifix",
		Version:   "1.0.0",
		Workspace: ".",
		Files:     append([]string(nil), DefaultFiles...),
		Strict:    false,

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return "mojifix.yaml"
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
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

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if ws := os.Getenv("MOJIFIX_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if v := os.Getenv("MOJIFIX_STRICT"); v != "" {
		if strict, err := strconv.ParseBool(v); err == nil {
			c.Strict = strict
		}
	}
	if level := os.Getenv("MOJIFIX_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace not configured")
	}
	if len(c.Files) == 0 {
		return fmt.Errorf("no target files configured")
	}
	for i, f := range c.Files {
		if f == "" {
			return fmt.Errorf("target %d is empty", i)
		}
	}
	return nil
}
