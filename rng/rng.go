package rng

import (
	"fmt"
	"math/rand"

	"word-memory-server/matcherrors"
)

// MaxSeed bounds generated seeds so they stay short enough to type back in.
const MaxSeed = 1_000_000

// Source is a seeded pseudo-random generator. A session owns one Source and passes
// it to every component that needs randomness, so replaying a seed replays the game.
type Source struct {
	seed int64
	r    *rand.Rand
}

// New returns a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{seed: seed, r: rand.New(rand.NewSource(seed))}
}

// NewRandom returns a Source with a freshly generated seed in [0, MaxSeed).
func NewRandom() *Source {
	return New(rand.Int63n(MaxSeed))
}

// Seed returns the seed the Source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Intn returns a value in [0, n).
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// Shuffle permutes n elements in place with Fisher–Yates.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}

// ShuffleSlice shuffles items in place.
func ShuffleSlice[T any](src *Source, items []T) {
	src.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// Sample returns k elements drawn without replacement from population, in random
// order. population is not modified.
func Sample[T any](src *Source, population []T, k int) ([]T, error) {
	if k < 0 || k > len(population) {
		return nil, fmt.Errorf("%w: want %d, have %d", matcherrors.ErrInsufficientPopulation, k, len(population))
	}
	pool := make([]T, len(population))
	copy(pool, population)
	// Partial Fisher–Yates: the first k slots end up holding the sample.
	for i := 0; i < k; i++ {
		j := i + src.r.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k], nil
}
