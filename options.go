package geofuzz

import (
	"log/slog"
	"time"
)

// BatchOption configures a Batch during creation.
//
// Example:
//
//	// Sequential execution, outputs under ./out
//	b := geofuzz.NewBatch(baseline.Factory,
//		geofuzz.WithRouter(geofuzz.NewRouter("input_data", "out")))
//
//	// Four runs at a time, each bounded to one minute
//	b := geofuzz.NewBatch(baseline.Factory,
//		geofuzz.WithJobs(4), geofuzz.WithRunTimeout(time.Minute))
type BatchOption func(*batchOptions)

// batchOptions holds optional configuration for Batch creation.
type batchOptions struct {
	router           *Router
	assets           *AssetCache
	jobs             int
	runTimeout       time.Duration
	sink             RecordSink
	logger           *slog.Logger
	progressInterval time.Duration
}

// defaultBatchOptions returns the reference behavior: one run at a time,
// no deadline, outputs routed from input_data to output_data.
func defaultBatchOptions() batchOptions {
	return batchOptions{
		jobs: 1,
	}
}

// WithRouter sets the output router.
// Default: NewRouter("input_data", "output_data").
func WithRouter(r *Router) BatchOption {
	return func(o *batchOptions) {
		o.router = r
	}
}

// WithAssetCache shares a decoded-asset cache between batches.
// Default: a fresh unlimited cache per Batch.
func WithAssetCache(c *AssetCache) BatchOption {
	return func(o *batchOptions) {
		o.assets = c
	}
}

// WithJobs sets how many runs execute concurrently. Values below 1 use
// GOMAXPROCS. Results do not depend on this setting.
func WithJobs(n int) BatchOption {
	return func(o *batchOptions) {
		o.jobs = n
	}
}

// WithRunTimeout bounds each run. A run exceeding it is recorded as
// canceled and writes no output. Zero disables the deadline.
func WithRunTimeout(d time.Duration) BatchOption {
	return func(o *batchOptions) {
		o.runTimeout = d
	}
}

// WithRecordSink receives every RunRecord as runs finish.
func WithRecordSink(s RecordSink) BatchOption {
	return func(o *batchOptions) {
		o.sink = s
	}
}

// WithLogger overrides the package logger for this batch.
func WithLogger(l *slog.Logger) BatchOption {
	return func(o *batchOptions) {
		o.logger = l
	}
}

// WithProgressInterval throttles per-run progress logging.
func WithProgressInterval(d time.Duration) BatchOption {
	return func(o *batchOptions) {
		o.progressInterval = d
	}
}
