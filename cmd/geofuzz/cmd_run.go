package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/gogpu/geofuzz"
	"github.com/gogpu/geofuzz/engine/baseline"
	"github.com/gogpu/geofuzz/internal/config"
	"github.com/gogpu/geofuzz/internal/ledger"
)

// prepared is a validated configuration with its routed plan.
type prepared struct {
	cfg    *config.Config
	plan   *geofuzz.Plan
	router *geofuzz.Router
}

// prepare loads the configuration, lists the corpus and builds the plan.
// Every failure is a setup error.
func (a *app) prepare(cmd *cobra.Command) (*prepared, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, setupError(err)
	}
	a.setupLogger(cfg)

	pc, err := cfg.PlanConfig()
	if err != nil {
		return nil, setupError(err)
	}

	seed := rand.Uint32()
	if cfg.Batch.Seed != nil {
		seed = *cfg.Batch.Seed
	} else {
		a.logger.Info("random batch seed", "seed", seed)
	}

	if err := geofuzz.EnsureDirs(cfg.InputDir, cfg.OutputDir); err != nil {
		return nil, setupError(err)
	}
	paths, err := geofuzz.ListCorpus(cfg.InputDir)
	if err != nil {
		return nil, setupError(err)
	}
	if len(paths) == 0 {
		return nil, setupError(fmt.Errorf("no assets in %s", cfg.InputDir))
	}

	plan, err := geofuzz.NewPlan(paths, pc, seed)
	if err != nil {
		return nil, setupError(err)
	}
	return &prepared{
		cfg:    cfg,
		plan:   plan,
		router: geofuzz.NewRouter(cfg.InputDir, cfg.OutputDir),
	}, nil
}

func (a *app) runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, err := a.prepare(cmd)
	if err != nil {
		return err
	}

	timeout, _ := p.cfg.GetRunTimeout()
	opts := []geofuzz.BatchOption{
		geofuzz.WithRouter(p.router),
		geofuzz.WithJobs(p.cfg.Batch.Jobs),
		geofuzz.WithRunTimeout(timeout),
		geofuzz.WithLogger(a.logger),
	}

	var writer *ledger.Writer
	if p.cfg.Ledger.Path != "" {
		l, err := ledger.Open(p.cfg.Ledger.Path)
		if err != nil {
			return setupError(err)
		}
		defer func() { _ = l.Close() }()

		writer, err = l.StartBatch(ctx, ledger.BatchInfo{
			Seed:      p.plan.BatchSeed,
			InputDir:  p.cfg.InputDir,
			OutputDir: p.cfg.OutputDir,
			Runs:      len(p.plan.Runs),
		})
		if err != nil {
			return setupError(err)
		}
		opts = append(opts, geofuzz.WithRecordSink(writer))
		a.logger.Info("recording to ledger", "path", p.cfg.Ledger.Path, "batch_id", writer.ID())
	}

	summary, err := geofuzz.NewBatch(baseline.Factory, opts...).Execute(ctx, p.plan)
	if err != nil {
		return setupError(err)
	}

	batchID := ""
	if writer != nil {
		batchID = writer.ID()
		if err := writer.Finish(context.WithoutCancel(ctx), summary); err != nil {
			a.logger.Warn("ledger finish failed", "err", err)
		}
	}

	printSummary(a.stdout, summary, batchID)

	if code := summary.ExitCode(); code != geofuzz.ExitOK {
		if errors.Is(ctx.Err(), context.Canceled) {
			return &exitError{code: code, err: ctx.Err()}
		}
		return &exitError{code: code}
	}
	return nil
}
