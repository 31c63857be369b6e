package geofuzz

import "math/rand/v2"

// Sampler draws randomized RunOptions uniformly from the declared ranges.
//
// The only randomness is the injected source, so a Sampler built on a
// seeded PCG reproduces the same option sequence on every execution.
// A Sampler is not safe for concurrent use; give each run its own.
type Sampler struct {
	rng   *rand.Rand
	kinds []ShapeKind
}

// NewSampler creates a sampler drawing from rng. Unpinned samples pick one
// kind uniformly from kinds, or from every supported kind when none are given.
func NewSampler(rng *rand.Rand, kinds ...ShapeKind) *Sampler {
	if len(kinds) == 0 {
		kinds = ShapeKinds()
	}
	return &Sampler{rng: rng, kinds: kinds}
}

// Sample returns fresh options whose shape set holds a single random kind.
func (s *Sampler) Sample() RunOptions {
	kind := s.kinds[s.rng.IntN(len(s.kinds))]
	return s.sample(NewShapeSet(kind))
}

// SamplePinned returns fresh options with the shape set fixed to pin.
// Pass AnyShape() to let the engine decide each step.
//
// The kind draw of Sample is still consumed so that pinned and unpinned runs
// with the same seed sample identical values for every other field.
func (s *Sampler) SamplePinned(pin ShapeSet) RunOptions {
	_ = s.rng.IntN(len(s.kinds))
	return s.sample(pin)
}

func (s *Sampler) sample(shapes ShapeSet) RunOptions {
	return RunOptions{
		Shapes:         shapes,
		Alpha:          uint8(s.rng.IntN(256)),
		CandidateCount: MinCandidateCount + s.rng.IntN(MaxCandidateCount-MinCandidateCount+1),
		MaxMutations:   MinMaxMutations + s.rng.IntN(MaxMaxMutations-MinMaxMutations+1),
		Seed:           s.rng.Uint32(),
		MaxWorkers:     s.rng.IntN(MaxMaxWorkers + 1),
	}
}

// IntRange returns a uniform integer in [lo, hi]. hi < lo returns lo.
func (s *Sampler) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}
