// Package config loads the harness configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/geofuzz"
)

// Config is the harness configuration. Command-line flags override it.
type Config struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	Batch   BatchConfig   `yaml:"batch"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logging LoggingConfig `yaml:"logging"`
}

// BatchConfig shapes the batch plan and its execution.
type BatchConfig struct {
	// Seed is the batch seed. Nil means a fresh random seed per batch.
	Seed *uint32 `yaml:"seed,omitempty"`

	CompositeRuns int      `yaml:"composite_runs"`
	MinSteps      int      `yaml:"min_steps"`
	MaxSteps      int      `yaml:"max_steps"`
	Shapes        []string `yaml:"shapes"`         // empty: every kind
	Combine       string   `yaml:"combine"`        // normalized, truncate
	EngineDecides bool     `yaml:"engine_decides"` // unpinned runs pass the "any" sentinel
	Jobs          int      `yaml:"jobs"`           // concurrent runs
	RunTimeout    string   `yaml:"run_timeout"`    // e.g. "5m"; empty: none
}

// LedgerConfig configures the SQLite run ledger.
type LedgerConfig struct {
	Path string `yaml:"path"` // empty: no ledger
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() *Config {
	plan := geofuzz.DefaultPlanConfig()
	return &Config{
		InputDir:  "input_data",
		OutputDir: "output_data",
		Batch: BatchConfig{
			CompositeRuns: plan.CompositeRuns,
			MinSteps:      plan.MinSteps,
			MaxSteps:      plan.MaxSteps,
			Combine:       plan.Combine.String(),
			Jobs:          1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file over the defaults.
// A missing file yields the defaults.
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
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("GEOFUZZ_INPUT_DIR"); dir != "" {
		c.InputDir = dir
	}
	if dir := os.Getenv("GEOFUZZ_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if path := os.Getenv("GEOFUZZ_LEDGER"); path != "" {
		c.Ledger.Path = path
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.InputDir) == "" {
		errs = append(errs, errors.New("input_dir is empty"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.Batch.Jobs < 1 {
		errs = append(errs, fmt.Errorf("batch.jobs %d < 1", c.Batch.Jobs))
	}
	if _, err := c.GetRunTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PlanConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// PlanConfig converts the batch section into a validated plan configuration.
func (c *Config) PlanConfig() (geofuzz.PlanConfig, error) {
	pc := geofuzz.PlanConfig{
		CompositeRuns: c.Batch.CompositeRuns,
		MinSteps:      c.Batch.MinSteps,
		MaxSteps:      c.Batch.MaxSteps,
		EngineDecides: c.Batch.EngineDecides,
	}

	policy, err := geofuzz.ParseCombinePolicy(c.Batch.Combine)
	if err != nil {
		return pc, err
	}
	pc.Combine = policy

	for _, tag := range c.Batch.Shapes {
		k, err := geofuzz.ParseShapeKind(tag)
		if err != nil {
			return pc, err
		}
		pc.Kinds = append(pc.Kinds, k)
	}

	if err := pc.Validate(); err != nil {
		return pc, err
	}
	return pc, nil
}

// GetRunTimeout returns the per-run timeout, 0 when unset.
func (c *Config) GetRunTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Batch.RunTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Batch.RunTimeout)
	if err != nil {
		return 0, fmt.Errorf("batch.run_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("batch.run_timeout %s is negative", d)
	}
	return d, nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level %q: %w", s, err)
	}
	return l, nil
}
