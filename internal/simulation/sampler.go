// Package simulation implements the Monte Carlo bootstrap engine:
// resampling historical outcomes with replacement, building equity
// curves, tracking drawdown, and collecting per-run summaries across a
// parallel batch.
package simulation

import (
	"math/rand"

	"trade-risk-lab/internal/domain"
)

// Sample draws n outcomes uniformly at random, with replacement, from the
// set, using the given generator. The draw sequence is fully determined
// by the generator's seed.
func Sample(rng *rand.Rand, set *domain.OutcomeSet, n int) []float64 {
	m := set.Len()
	sampled := make([]float64, n)
	for i := range sampled {
		sampled[i] = set.At(rng.Intn(m))
	}
	return sampled
}

// SampleForRun draws the resample for a specific run index, deriving the
// run's generator from the base seed. Convenience for callers that need a
// single run's draw outside the batch runner (hand verification, replay).
func SampleForRun(set *domain.OutcomeSet, n int, baseSeed int64, runIndex int) []float64 {
	rng := rand.New(rand.NewSource(SubSeed(baseSeed, runIndex)))
	return Sample(rng, set, n)
}
