package geofuzz

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. Enabled reports false so the
// orchestrator's per-step attributes are never built when nobody listens.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the harness logger; batch workers read it concurrently.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the logger used by batches, the orchestrator and any
// engine that accepts one. The harness is silent until this is called;
// nil restores silence.
//
// Records emitted by level:
//   - Debug: "step" with the sampled RunOptions, "added shape" per result
//   - Info: "batch start", "run start", "progress" (rate limited),
//     "run passed", "batch done"
//   - Warn: "run failed" with the error kind, step and last options;
//     "record sink failed"
//
// Batch options may override it per batch with WithLogger. Records carry
// the run index and seed, so a failing run can be replayed from the log:
//
//	geofuzz.SetLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
//	summary, err := geofuzz.NewBatch(baseline.Factory).Execute(ctx, plan)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the harness logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes l to a freshly built engine that accepts a logger.
func propagateLogger(e Engine, l *slog.Logger) {
	if ls, ok := e.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
