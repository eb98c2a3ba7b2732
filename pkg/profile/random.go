package profile

import (
	"math/rand/v2"
	"time"
)

// RandomSource yields uniform values in [0, 1). *rand.Rand from math/rand/v2
// satisfies it. A RandomSource is not safe for concurrent use; every
// goroutine needs its own.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a PCG-backed source. The same seed always yields
// the same sequence.
func NewRandomSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitMix(seed)))
}

// SeedFromClock derives a seed from the wall clock.
func SeedFromClock() uint64 {
	return uint64(time.Now().UnixNano())
}

// workerSeed derives an independent seed for worker i from a base seed so
// that parallel workers do not produce correlated streams.
func workerSeed(base uint64, i int) uint64 {
	return splitMix(base + uint64(i+1)*0x9e3779b97f4a7c15)
}

// splitMix is one SplitMix64 output step.
func splitMix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
