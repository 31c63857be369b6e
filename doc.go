// Package geofuzz provides a corpus-driven fuzz harness for geometrization
// engines.
//
// # Overview
//
// A geometrization engine approximates a raster image with a sequence of
// flat-colored primitives. geofuzz stresses such an engine across every shape
// kind it supports, across randomized parameter combinations, and across
// synthetic composite images that a natural corpus is unlikely to contain.
// Every score the engine reports is checked against its contract; a score
// outside [0, 1] fails the run.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/geofuzz"
//		"github.com/gogpu/geofuzz/engine/baseline"
//	)
//
//	paths, err := geofuzz.ListCorpus("input_data")
//	// handle err
//	plan, err := geofuzz.NewPlan(paths, geofuzz.DefaultPlanConfig(), 42)
//	// handle err
//	batch := geofuzz.NewBatch(baseline.Factory,
//		geofuzz.WithRouter(geofuzz.NewRouter("input_data", "output_data")),
//		geofuzz.WithJobs(4),
//	)
//	summary, err := batch.Execute(ctx, plan)
//	// handle err
//	os.Exit(summary.ExitCode())
//
// # Reproducibility
//
// All randomness flows from a single batch seed. Each planned run receives a
// seed derived from the batch seed and its run index, so a failing run can be
// replayed from its seed alone regardless of how many runs executed in
// parallel.
//
// # Architecture
//
// The library is organized into:
//   - Public API: ListCorpus, Sampler, Composite, Orchestrator, Validator,
//     Router, Plan, Batch
//   - Engines: engine/baseline (reference collaborator)
//   - Internal: raster (span rasterization), cache (asset LRU),
//     parallel (run pool), ledger (SQLite run records), config (YAML)
package geofuzz

// Version information
const (
	// Version is the current version of the harness
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
