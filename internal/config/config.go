// Package config loads arbor's YAML settings: warning policy, default
// modifiers, worker count and the catalog path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

// FileName is the per-directory config file the CLI looks for
const FileName = ".arbor.yaml"

// Config is the on-disk configuration
type Config struct {
	Warnings  WarningConfig `yaml:"warnings"`
	Modifiers []string      `yaml:"modifiers,omitempty"`
	Workers   int           `yaml:"workers"`
	Store     string        `yaml:"store"`
	LogLevel  string        `yaml:"log_level"`
}

// WarningConfig mirrors the warning handler settings. Max is a pointer so an
// explicit 0 (silence everything) survives defaulting.
type WarningConfig struct {
	Max    *int     `yaml:"max,omitempty"`
	Raise  bool     `yaml:"raise"`
	Ignore []string `yaml:"ignore,omitempty"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	maxWarnings := warning.DefaultMaxWarnings
	return &Config{
		Warnings: WarningConfig{Max: &maxWarnings},
		Workers:  runtime.NumCPU(),
		Store:    "arbor.db",
		LogLevel: "info",
	}
}

// Load reads and validates the file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// a relative store path is relative to the config file
	if !filepath.IsAbs(cfg.Store) {
		cfg.Store = filepath.Join(filepath.Dir(path), cfg.Store)
	}
	return cfg, nil
}

// Parse decodes YAML, fills unset fields from Default and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	def := Default()
	if cfg.Warnings.Max == nil {
		cfg.Warnings.Max = def.Warnings.Max
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Store == "" {
		cfg.Store = def.Store
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that names in the file are known
func (c *Config) Validate() error {
	if _, err := c.ModifierFlags(); err != nil {
		return err
	}
	if _, err := c.IgnoredKinds(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ModifierFlags parses the configured modifier names
func (c *Config) ModifierFlags() (morph.Modifier, error) {
	return morph.ParseModifiers(c.Modifiers)
}

// IgnoredKinds parses the configured ignore list
func (c *Config) IgnoredKinds() ([]warning.Kind, error) {
	kinds := make([]warning.Kind, 0, len(c.Warnings.Ignore))
	for _, name := range c.Warnings.Ignore {
		k, err := warning.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("warnings.ignore: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// MaxWarnings returns the configured max count
func (c *Config) MaxWarnings() int {
	if c.Warnings.Max == nil {
		return warning.DefaultMaxWarnings
	}
	return *c.Warnings.Max
}

// Apply pushes the warning settings onto h
func (c *Config) Apply(h warning.Handler) error {
	kinds, err := c.IgnoredKinds()
	if err != nil {
		return err
	}
	for _, k := range kinds {
		h.SetIgnoredWarning(k, true)
	}
	h.SetMaxWarningCount(c.MaxWarnings())
	h.SetRaiseWarnings(c.Warnings.Raise)
	return nil
}

// WarningHandler returns a printer logging to logger, configured from c
func (c *Config) WarningHandler(logger *logrus.Logger) (*warning.Printer, error) {
	p := warning.NewPrinter(logger)
	if err := c.Apply(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes c as YAML, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
