package geofuzz

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Engine is the geometrization engine under test.
//
// An engine owns its cumulative approximation. Each Step evaluates candidate
// shapes against the target and accepts zero or more of them, returning one
// StepResult per accepted shape. Current returns the cumulative image.
// Steps of one engine are called sequentially.
type Engine interface {
	Step(ctx context.Context, opts RunOptions) ([]StepResult, error)
	Current() *Bitmap
}

// EngineFactory constructs an engine approximating initial.
type EngineFactory func(initial *Bitmap) (Engine, error)

// OptionSource supplies the options for a step.
type OptionSource func(step int) RunOptions

// RunStats summarizes the results of one orchestrated run.
type RunStats struct {
	Steps    int // completed steps
	Results  int // accepted shapes across all steps
	MinScore float64
	MaxScore float64
}

func (s *RunStats) add(r StepResult) {
	if s.Results == 0 {
		s.MinScore, s.MaxScore = r.Score, r.Score
	} else {
		s.MinScore = math.Min(s.MinScore, r.Score)
		s.MaxScore = math.Max(s.MaxScore, r.Score)
	}
	s.Results++
}

// DefaultProgressInterval is the minimum time between progress log lines of
// a single run.
const DefaultProgressInterval = 2 * time.Second

// Orchestrator drives an engine through a fixed number of steps.
type Orchestrator struct {
	// Logger receives per-step and progress logs. Nil uses Logger().
	Logger *slog.Logger

	// ProgressInterval throttles Info-level progress lines.
	// Zero uses DefaultProgressInterval.
	ProgressInterval time.Duration
}

// Run calls eng.Step exactly steps times, validating every result as it is
// produced, and returns a snapshot of the engine's cumulative image.
//
// Run stops early only when a result fails validation (KindValidation), the
// engine returns an error (KindEngine), options are out of range (KindConfig)
// or ctx is done (KindCanceled). On any error no image is returned.
func (o *Orchestrator) Run(ctx context.Context, eng Engine, steps int, next OptionSource) (*Bitmap, RunStats, error) {
	log := o.Logger
	if log == nil {
		log = Logger()
	}
	interval := o.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	progress := rate.Sometimes{Interval: interval}

	var stats RunStats
	for step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, stats, newError(KindCanceled, fmt.Sprintf("step %d", step), "", err)
		}

		opts := next(step)
		if err := opts.Validate(); err != nil {
			return nil, stats, newError(KindConfig, fmt.Sprintf("step %d", step), "", err)
		}
		log.Debug("step", "step", step, "options", opts)

		results, err := eng.Step(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, newError(KindCanceled, fmt.Sprintf("step %d", step), "", err)
			}
			return nil, stats, newError(KindEngine, fmt.Sprintf("step %d", step), "", err)
		}

		v := Validator{Permitted: opts.Shapes}
		for i, r := range results {
			log.Debug("added shape", "step", step, "ordinal", i, "kind", r.Kind, "score", r.Score)
			if err := v.Check(step, i, r); err != nil {
				return nil, stats, err
			}
			stats.add(r)
		}
		stats.Steps = step + 1

		progress.Do(func() {
			log.Info("progress", "step", stats.Steps, "of", steps, "shapes", stats.Results)
		})
	}

	cur := eng.Current()
	if cur == nil {
		return nil, stats, newError(KindEngine, "current", "", fmt.Errorf("engine returned no image"))
	}
	return cur.Clone(), stats, nil
}
