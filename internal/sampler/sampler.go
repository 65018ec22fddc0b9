// Package sampler selects random subsets of tracks for a quiz round.
package sampler

import "math/rand"

// Select returns a uniform random subset of count elements from items, in
// random order. The result length is min(count, len(items)) and every element
// appears at most once. The caller supplies the random source so selection is
// deterministic under test.
//
// Implemented as a partial Fisher-Yates shuffle over a copy of the input; the
// input slice is never modified.
func Select[T any](rng *rand.Rand, items []T, count int) []T {
	if count <= 0 || len(items) == 0 {
		return []T{}
	}
	if count > len(items) {
		count = len(items)
	}

	pool := make([]T, len(items))
	copy(pool, items)

	for i := 0; i < count; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:count]
}
