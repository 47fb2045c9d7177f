package simulation

import (
	"math/rand"

	"trade-risk-lab/internal/domain"
)

// runResult is the transient product of a single bootstrap run. Only the
// summary outlives the run unless the curve was retained.
type runResult struct {
	summary  domain.RunSummary
	curve    []float64 // nil in streaming mode
	unstable bool
}

// executeRun performs one bootstrap trial: derive the run's generator,
// resample, and fold the path statistics. When retainCurve is set the
// full equity curve is kept for visualization consumers.
func executeRun(set *domain.OutcomeSet, n int, baseSeed int64, runIndex int, retainCurve bool) runResult {
	rng := rand.New(rand.NewSource(SubSeed(baseSeed, runIndex)))
	sampled := Sample(rng, set, n)

	terminal, maxDD, winRate, unstable := pathStats(sampled)

	res := runResult{
		summary: domain.RunSummary{
			TerminalReturn: terminal,
			MaxDrawdown:    maxDD,
			WinRate:        winRate,
		},
		unstable: unstable,
	}
	if retainCurve {
		res.curve = BuildEquityCurve(sampled)
	}
	return res
}
