// Package baseline provides a reference geometrization engine.
//
// The baseline engine exists so the harness has a real collaborator to drive:
// each step evaluates CandidateCount random shapes of the permitted kinds,
// hill-climbs the best one for up to MaxMutations mutations, and accepts it
// only if it lowers the error. It makes no attempt to be fast or to produce
// good-looking approximations.
//
// Results are a pure function of the target image and the per-step options.
// Candidate i of a step always draws from the stream (Seed, i+1) and the hill
// climb from (Seed, 0), so MaxWorkers changes speed, never output.
package baseline
