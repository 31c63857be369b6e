package geofuzz

import (
	"errors"
	"fmt"
)

// PlanConfig declares the shape of a batch.
type PlanConfig struct {
	// Kinds are swept one at a time for every asset and are the pool that
	// unpinned runs sample from. Empty means every supported kind.
	Kinds []ShapeKind

	// CompositeRuns is the number of randomly paired composite runs.
	CompositeRuns int

	// MinSteps and MaxSteps bound the uniformly drawn step count of a run.
	MinSteps int
	MaxSteps int

	// EngineDecides makes unpinned runs hand the AnyShape() sentinel to the
	// engine. When false, unpinned runs sample one random kind per step.
	EngineDecides bool

	// Combine is the channel policy used to build composite images.
	Combine CombinePolicy
}

// DefaultPlanConfig returns the reference batch shape: every kind, 100
// composite runs, 100 to 300 steps per run.
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		CompositeRuns: 100,
		MinSteps:      100,
		MaxSteps:      300,
		Combine:       CombineNormalized,
	}
}

func (c PlanConfig) kinds() []ShapeKind {
	if len(c.Kinds) == 0 {
		return ShapeKinds()
	}
	return c.Kinds
}

// Validate checks the configuration.
func (c PlanConfig) Validate() error {
	var errs []error
	if c.CompositeRuns < 0 {
		errs = append(errs, fmt.Errorf("composite runs %d < 0", c.CompositeRuns))
	}
	if c.MinSteps < 0 {
		errs = append(errs, fmt.Errorf("min steps %d < 0", c.MinSteps))
	}
	if c.MaxSteps < c.MinSteps {
		errs = append(errs, fmt.Errorf("max steps %d < min steps %d", c.MaxSteps, c.MinSteps))
	}
	seen := make(map[ShapeKind]bool, len(c.Kinds))
	for _, k := range c.Kinds {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("invalid shape kind %d", uint8(k)))
		} else if seen[k] {
			errs = append(errs, fmt.Errorf("duplicate shape kind %s", k))
		}
		seen[k] = true
	}
	if c.Combine != CombineNormalized && c.Combine != CombineTruncating {
		errs = append(errs, fmt.Errorf("invalid combine policy %v", c.Combine))
	}
	if err := errors.Join(errs...); err != nil {
		return newError(KindConfig, "validate plan", "", err)
	}
	return nil
}

// PlannedRun is one run of a batch, fully determined before execution.
type PlannedRun struct {
	Index       int
	Kind        RunKind
	Assets      []string // one asset for sweeps, two for composites
	Pin         ShapeSet // empty: sample a kind per step
	CompositeID int      // -1 for sweeps
	Seed        uint64
	Steps       int
	OutputPath  string // set by Plan.Route
}

// Pinned reports whether the run fixes its shape set for every step.
func (r PlannedRun) Pinned() bool { return !r.Pin.IsEmpty() }

// Plan is the ordered list of runs of one batch.
type Plan struct {
	BatchSeed uint32
	Config    PlanConfig
	Assets    []string
	Runs      []PlannedRun
}

// stepsSalt separates the step-count draw from the run's option stream.
const stepsSalt = 0x7374657073 // "steps"

// NewPlan builds the batch plan for assets.
//
// For every asset the plan holds one run per declared kind (pinned to that
// kind) followed by one unpinned run, N×(K+1) sweep runs in total. Then
// come cfg.CompositeRuns composite runs, each pairing two assets drawn
// uniformly (with replacement) from a stream seeded by batchSeed.
//
// Requesting composite runs over an empty corpus fails with KindConfig.
func NewPlan(assets []string, cfg PlanConfig, batchSeed uint32) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(assets) == 0 && cfg.CompositeRuns > 0 {
		return nil, newError(KindConfig, "plan", "", errors.New("empty corpus: cannot pair assets for composite runs"))
	}

	kinds := cfg.kinds()
	unpinned := ShapeSet{}
	if cfg.EngineDecides {
		unpinned = AnyShape()
	}

	p := &Plan{
		BatchSeed: batchSeed,
		Config:    cfg,
		Assets:    append([]string(nil), assets...),
		Runs:      make([]PlannedRun, 0, len(assets)*(len(kinds)+1)+cfg.CompositeRuns),
	}

	add := func(r PlannedRun) {
		r.Index = len(p.Runs)
		r.Seed = DeriveRunSeed(batchSeed, r.Index)
		r.Steps = NewSampler(NewRand(r.Seed ^ stepsSalt)).IntRange(cfg.MinSteps, cfg.MaxSteps)
		p.Runs = append(p.Runs, r)
	}

	for _, a := range assets {
		for _, k := range kinds {
			add(PlannedRun{Kind: RunSweep, Assets: []string{a}, Pin: NewShapeSet(k), CompositeID: -1})
		}
		add(PlannedRun{Kind: RunSweep, Assets: []string{a}, Pin: unpinned, CompositeID: -1})
	}

	pairs := NewRand(planSeed(batchSeed))
	for id := range cfg.CompositeRuns {
		first := assets[pairs.IntN(len(assets))]
		second := assets[pairs.IntN(len(assets))]
		add(PlannedRun{Kind: RunComposite, Assets: []string{first, second}, Pin: unpinned, CompositeID: id})
	}

	return p, nil
}

// SweepRuns returns the number of sweep runs in the plan.
func (p *Plan) SweepRuns() int {
	n := 0
	for _, r := range p.Runs {
		if r.Kind == RunSweep {
			n++
		}
	}
	return n
}

// Route assigns every run its output path through r and reserves it.
// A collision fails with KindConfig before anything executes.
func (p *Plan) Route(r *Router) error {
	r.Prepare(p.Assets)
	for i := range p.Runs {
		run := &p.Runs[i]
		switch run.Kind {
		case RunSweep:
			run.OutputPath = r.SweepPath(run.Assets[0], run.Pin)
		case RunComposite:
			run.OutputPath = r.CompositePath(run.Assets[0], run.CompositeID)
		}
		if err := r.Reserve(run.OutputPath, run.Index); err != nil {
			return err
		}
	}
	return nil
}
