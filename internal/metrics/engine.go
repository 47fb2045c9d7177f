package metrics

import (
	"errors"
	"sort"

	"trade-risk-lab/internal/domain"
)

// ErrNoRuns is returned when a batch holds no completed runs.
var ErrNoRuns = errors.New("no completed runs available for statistics")

// ComputeRiskStatistics reduces a finished batch into its risk summary.
// Statistics are always computed over the batch's completed run count;
// for a cancelled batch that count is carried on the result so consumers
// can tell a partial distribution from a full one.
func ComputeRiskStatistics(batch *domain.SimulationBatch, cfg domain.SimConfig) (*domain.RiskStatistics, error) {
	if batch == nil || batch.Completed == 0 {
		return nil, ErrNoRuns
	}

	k := batch.Completed

	sortedTerminals := make([]float64, k)
	copy(sortedTerminals, batch.TerminalReturns[:k])
	sort.Float64s(sortedTerminals)

	positive := 0
	for _, r := range batch.TerminalReturns[:k] {
		if r > 0 {
			positive++
		}
	}

	stats := &domain.RiskStatistics{
		BatchID:            batch.BatchID,
		Requested:          batch.Requested,
		Completed:          k,
		TerminalReturn:     summarize(batch.TerminalReturns[:k]),
		MaxDrawdown:        summarize(batch.MaxDrawdowns[:k]),
		WinRate:            summarize(batch.WinRates[:k]),
		ProbPositiveReturn: float64(positive) / float64(k),
		DrawdownBreaches:   drawdownBreaches(batch.MaxDrawdowns[:k], cfg.DrawdownThresholds),
		TailRisks:          tailRisks(sortedTerminals, cfg.VaRLevels),
		UnstableRuns:       batch.UnstableRuns,
	}
	return stats, nil
}

// drawdownBreaches computes P(max_drawdown < t) for each threshold.
// Thresholds arrive shallow to deep, so probabilities are non-increasing.
func drawdownBreaches(maxDrawdowns, thresholds []float64) []domain.ThresholdProbability {
	out := make([]domain.ThresholdProbability, 0, len(thresholds))
	for _, t := range thresholds {
		breached := 0
		for _, dd := range maxDrawdowns {
			if dd < t {
				breached++
			}
		}
		out = append(out, domain.ThresholdProbability{
			Threshold:   t,
			Probability: float64(breached) / float64(len(maxDrawdowns)),
		})
	}
	return out
}

// tailRisks computes VaR and CVaR per configured tail level.
// VaR(p) is the p-th percentile of terminal returns; CVaR(p) averages the
// terminal returns at or below VaR(p). A degenerate batch with an empty
// tail falls back to CVaR = VaR.
func tailRisks(sortedTerminals, levels []float64) []domain.TailRisk {
	out := make([]domain.TailRisk, 0, len(levels))
	for _, p := range levels {
		v := percentile(sortedTerminals, p)

		tailSum := 0.0
		tailCount := 0
		for _, r := range sortedTerminals {
			if r > v {
				break // sorted ascending: past the tail
			}
			tailSum += r
			tailCount++
		}

		cvar := v
		if tailCount > 0 {
			cvar = tailSum / float64(tailCount)
		}
		out = append(out, domain.TailRisk{Level: p, VaR: v, CVaR: cvar})
	}
	return out
}
