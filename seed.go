package geofuzz

import "math/rand/v2"

// pcgStream is the PCG increment selector shared by all harness streams.
// Distinct purposes use distinct seeds, not distinct streams.
const pcgStream = 0x9e3779b97f4a7c15

// splitmix64 is the SplitMix64 finalizer. It spreads consecutive inputs over
// the whole 64-bit range.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// DeriveRunSeed returns the seed of the run at index within the batch seeded
// by batchSeed. The mapping depends only on its arguments.
func DeriveRunSeed(batchSeed uint32, index int) uint64 {
	return splitmix64(uint64(batchSeed)<<32 ^ splitmix64(uint64(index)))
}

// NewRand returns a PCG-backed generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, pcgStream))
}

// planSeed is the seed of the stream that draws composite pairs.
func planSeed(batchSeed uint32) uint64 {
	return splitmix64(uint64(batchSeed) ^ 0x636f6d706f736974) // "composit"
}
