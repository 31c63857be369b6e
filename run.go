package geofuzz

import (
	"fmt"
	"log/slog"
	"time"
)

// Declared ranges for sampled run options.
const (
	MinCandidateCount = 1
	MaxCandidateCount = 200
	MinMaxMutations   = 1
	MaxMaxMutations   = 200
	MaxMaxWorkers     = 16
)

// RunOptions are the per-step engine parameters.
type RunOptions struct {
	// Shapes is the set of kinds the engine may choose from, or AnyShape().
	Shapes ShapeSet

	// Alpha is the opacity of placed shapes.
	Alpha uint8

	// CandidateCount is the number of random candidates evaluated per step.
	CandidateCount int

	// MaxMutations bounds the mutations tried on the best candidate.
	MaxMutations int

	// Seed seeds the engine's own randomness for this step.
	Seed uint32

	// MaxWorkers caps engine-internal parallelism; 0 lets the engine choose.
	MaxWorkers int
}

// Validate checks every field against its declared range.
func (o RunOptions) Validate() error {
	switch {
	case o.Shapes.IsEmpty():
		return fmt.Errorf("geofuzz: run options: empty shape set")
	case o.CandidateCount < MinCandidateCount || o.CandidateCount > MaxCandidateCount:
		return fmt.Errorf("geofuzz: run options: candidate count %d out of range [%d, %d]",
			o.CandidateCount, MinCandidateCount, MaxCandidateCount)
	case o.MaxMutations < MinMaxMutations || o.MaxMutations > MaxMaxMutations:
		return fmt.Errorf("geofuzz: run options: max mutations %d out of range [%d, %d]",
			o.MaxMutations, MinMaxMutations, MaxMaxMutations)
	case o.MaxWorkers < 0 || o.MaxWorkers > MaxMaxWorkers:
		return fmt.Errorf("geofuzz: run options: max workers %d out of range [0, %d]",
			o.MaxWorkers, MaxMaxWorkers)
	}
	return nil
}

// LogValue implements slog.LogValuer.
func (o RunOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("shapes", o.Shapes.String()),
		slog.Int("alpha", int(o.Alpha)),
		slog.Int("candidates", o.CandidateCount),
		slog.Int("mutations", o.MaxMutations),
		slog.Uint64("seed", uint64(o.Seed)),
		slog.Int("workers", o.MaxWorkers),
	)
}

// StepResult is one shape accepted by the engine.
type StepResult struct {
	Kind  ShapeKind
	Score float64 // normalized error after the shape was added, in [0, 1]
}

// RunKind distinguishes sweep runs from composite runs.
type RunKind string

const (
	// RunSweep runs a single asset with a pinned or unpinned shape set.
	RunSweep RunKind = "sweep"

	// RunComposite runs a composite of two assets.
	RunComposite RunKind = "composite"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	// StatusPassed means every step completed and the output was written.
	StatusPassed RunStatus = "passed"

	// StatusFailed means the run hit a load, validation, engine or write error.
	StatusFailed RunStatus = "failed"

	// StatusCanceled means the run was aborted before completing.
	StatusCanceled RunStatus = "canceled"
)

// RunRecord describes one executed run. Records are produced in run-index
// order; two batches with the same seed and corpus produce equal records
// apart from the timing fields.
type RunRecord struct {
	Index       int
	Kind        RunKind
	Assets      []string
	Shapes      ShapeSet
	CompositeID int // sequence number among composite runs, -1 for sweeps
	Seed        uint64
	Steps       int
	OutputPath  string

	Status    RunStatus
	ErrorKind ErrorKind
	Error     string
	FailStep  int // step index of a validation failure, -1 otherwise

	// LastOptions are the options of the last step started; for a failed
	// run, the options in effect when it failed.
	LastOptions RunOptions

	Results  int
	MinScore float64
	MaxScore float64
	Bytes    int64 // size of the written output file

	Started  time.Time
	Duration time.Duration
}

// Failed reports whether the run did not pass.
func (r RunRecord) Failed() bool {
	return r.Status != StatusPassed
}
