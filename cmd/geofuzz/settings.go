package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/geofuzz"
	"github.com/gogpu/geofuzz/internal/config"
)

// loadConfig reads the configuration file and applies the flags the user set
// explicitly on top of it.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := a.configPath
	if path == "" {
		path = defaultConfigPath
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input-dir") {
		cfg.InputDir = a.inputDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = a.outputDir
	}
	if flags.Changed("batch-seed") {
		seed := a.batchSeed
		cfg.Batch.Seed = &seed
	}
	if flags.Changed("composite-runs") {
		cfg.Batch.CompositeRuns = a.compositeRuns
	}
	if flags.Changed("min-steps") {
		cfg.Batch.MinSteps = a.minSteps
	}
	if flags.Changed("max-steps") {
		cfg.Batch.MaxSteps = a.maxSteps
	}
	if flags.Changed("shapes") {
		cfg.Batch.Shapes = splitList(a.shapes)
	}
	if flags.Changed("combine") {
		cfg.Batch.Combine = a.combine
	}
	if flags.Changed("engine-decides") {
		cfg.Batch.EngineDecides = a.engineDecides
	}
	if flags.Changed("jobs") {
		cfg.Batch.Jobs = a.jobs
	}
	if flags.Changed("run-timeout") {
		cfg.Batch.RunTimeout = a.runTimeout.String()
	}
	if flags.Changed("ledger") {
		cfg.Ledger.Path = a.ledgerPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the process logger on stderr and hands it to the
// harness.
func (a *app) setupLogger(cfg *config.Config) {
	level, _ := config.ParseLevel(cfg.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		h = slog.NewJSONHandler(a.stderr, opts)
	} else {
		h = slog.NewTextHandler(a.stderr, opts)
	}
	a.logger = slog.New(h)
	geofuzz.SetLogger(a.logger)
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' || r == ' ' })
}
