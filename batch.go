package geofuzz

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/geofuzz/internal/parallel"
)

// RecordSink receives run records as runs finish. Record may be called from
// several goroutines, but never concurrently: the batch serializes calls.
type RecordSink interface {
	Record(ctx context.Context, r RunRecord) error
}

// Batch executes plans against an engine.
type Batch struct {
	factory EngineFactory
	opts    batchOptions
	sinkMu  sync.Mutex
}

// NewBatch creates a batch driving engines built by factory.
func NewBatch(factory EngineFactory, opts ...BatchOption) *Batch {
	o := defaultBatchOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.router == nil {
		o.router = NewRouter("input_data", "output_data")
	}
	if o.assets == nil {
		o.assets = NewAssetCache(0)
	}
	return &Batch{factory: factory, opts: o}
}

func (b *Batch) logger() *slog.Logger {
	if b.opts.logger != nil {
		return b.opts.logger
	}
	return Logger()
}

// Execute runs every planned run and returns the aggregated summary.
//
// Per-run failures (load, validation, engine, write, cancellation) are
// recorded and never stop the batch. Execute itself fails only on setup
// problems, with KindConfig: a nil factory or colliding output paths.
// Cancelling ctx marks the remaining runs canceled.
func (b *Batch) Execute(ctx context.Context, plan *Plan) (*Summary, error) {
	if b.factory == nil {
		return nil, newError(KindConfig, "execute", "", errors.New("nil engine factory"))
	}
	if err := plan.Route(b.opts.router); err != nil {
		return nil, err
	}

	log := b.logger()
	log.Info("batch start",
		"seed", plan.BatchSeed,
		"assets", len(plan.Assets),
		"runs", len(plan.Runs),
		"jobs", b.opts.jobs)

	start := time.Now()
	records := make([]RunRecord, len(plan.Runs))
	var sinkErrs []error

	pool := parallel.NewWorkerPool(b.opts.jobs)
	defer pool.Close()
	pool.ForEach(len(plan.Runs), func(i int) {
		rec := b.runOne(ctx, plan, plan.Runs[i])
		records[i] = rec
		if err := b.record(ctx, rec); err != nil {
			b.sinkMu.Lock()
			sinkErrs = append(sinkErrs, err)
			b.sinkMu.Unlock()
		}
	})

	s := newSummary(plan.BatchSeed, records, time.Since(start))
	s.SinkErrors = len(sinkErrs)
	s.Cache = b.opts.assets.Stats()
	log.Info("batch done",
		"runs", len(records),
		"passed", s.Passed,
		"failed", s.Failed,
		"canceled", s.Canceled,
		"duration", s.Duration)
	return s, nil
}

func (b *Batch) record(ctx context.Context, rec RunRecord) error {
	if b.opts.sink == nil {
		return nil
	}
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()

	if err := b.opts.sink.Record(context.WithoutCancel(ctx), rec); err != nil {
		b.logger().Warn("record sink failed", "run", rec.Index, "err", err)
		return err
	}
	return nil
}

// runOne executes a single planned run and never returns an error: every
// failure ends up in the record.
func (b *Batch) runOne(ctx context.Context, plan *Plan, run PlannedRun) RunRecord {
	rec := RunRecord{
		Index:       run.Index,
		Kind:        run.Kind,
		Assets:      run.Assets,
		Shapes:      run.Pin,
		CompositeID: run.CompositeID,
		Seed:        run.Seed,
		Steps:       run.Steps,
		OutputPath:  run.OutputPath,
		FailStep:    -1,
		Started:     time.Now(),
	}
	log := b.logger().With("run", run.Index, "kind", run.Kind, "assets", run.Assets, "seed", run.Seed)

	if b.opts.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.runTimeout)
		defer cancel()
	}

	fail := func(err error) RunRecord {
		rec.Duration = time.Since(rec.Started)
		rec.ErrorKind = KindOf(err)
		rec.Error = err.Error()
		rec.Status = StatusFailed
		if rec.ErrorKind == KindCanceled {
			rec.Status = StatusCanceled
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			rec.FailStep = ve.Step
		}
		log.Warn("run failed",
			"status", rec.Status,
			"error_kind", rec.ErrorKind,
			"step", rec.FailStep,
			"options", rec.LastOptions,
			"err", err)
		return rec
	}

	if err := ctx.Err(); err != nil {
		return fail(newError(KindCanceled, "start", "", err))
	}

	initial, err := b.initialImage(plan, run)
	if err != nil {
		return fail(err)
	}

	eng, err := b.factory(initial)
	if err != nil {
		return fail(newError(KindEngine, "create engine", "", err))
	}
	propagateLogger(eng, log)

	sampler := NewSampler(NewRand(run.Seed), plan.Config.kinds()...)
	next := func(int) RunOptions {
		if run.Pinned() {
			rec.LastOptions = sampler.SamplePinned(run.Pin)
		} else {
			rec.LastOptions = sampler.Sample()
		}
		return rec.LastOptions
	}

	log.Info("run start", "steps", run.Steps, "shapes", run.Pin, "output", run.OutputPath)
	orch := Orchestrator{Logger: log, ProgressInterval: b.opts.progressInterval}
	img, stats, err := orch.Run(ctx, eng, run.Steps, next)
	rec.Results = stats.Results
	rec.MinScore = stats.MinScore
	rec.MaxScore = stats.MaxScore
	if err != nil {
		return fail(err)
	}

	n, err := b.opts.router.Write(run.OutputPath, img)
	if err != nil {
		return fail(err)
	}
	rec.Bytes = n
	rec.Status = StatusPassed
	rec.Duration = time.Since(rec.Started)
	log.Info("run passed", "shapes", stats.Results, "min_score", stats.MinScore, "output", run.OutputPath)
	return rec
}

// initialImage decodes the run's assets and builds the engine input.
func (b *Batch) initialImage(plan *Plan, run PlannedRun) (*Bitmap, error) {
	first, err := b.opts.assets.Get(run.Assets[0])
	if err != nil {
		return nil, err
	}
	if run.Kind != RunComposite {
		return first.Bitmap.Clone(), nil
	}

	second, err := b.opts.assets.Get(run.Assets[1])
	if err != nil {
		return nil, err
	}
	img, err := Composite(first.Bitmap, second.Bitmap, plan.Config.Combine)
	if err != nil {
		return nil, newError(KindLoad, "composite", run.Assets[0], err)
	}
	return img, nil
}
