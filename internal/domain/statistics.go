package domain

// MetricSummary describes the distribution of one per-run metric across
// the batch: mean, sample standard deviation, and the standard percentile
// ladder. Percentiles use linear interpolation between order statistics,
// so P5 <= P25 <= P50 <= P75 <= P95 always holds.
type MetricSummary struct {
	Mean   float64
	Stddev float64
	P5     float64
	P25    float64
	P50    float64
	P75    float64
	P95    float64
}

// ThresholdProbability is the probability that a run's max drawdown
// breached (went below) a configured negative threshold.
type ThresholdProbability struct {
	Threshold   float64 // negative, same unit as outcomes
	Probability float64 // in [0,1], non-increasing as |Threshold| grows
}

// TailRisk pairs a tail level with its Value-at-Risk and Conditional VaR
// over the terminal-return distribution. CVaR <= VaR by construction.
type TailRisk struct {
	Level float64 // tail probability in (0,1)
	VaR   float64 // Percentile(terminal_return, Level)
	CVaR  float64 // mean of terminal returns <= VaR; VaR itself when the tail is empty
}

// RiskStatistics is the read-only result of reducing a finished batch.
// Computed once, never mutated afterward.
type RiskStatistics struct {
	BatchID   string
	Requested int
	Completed int // the K actually used; differs from Requested only for partial batches

	TerminalReturn MetricSummary
	MaxDrawdown    MetricSummary
	WinRate        MetricSummary

	// ProbPositiveReturn is count(terminal_return > 0) / Completed.
	ProbPositiveReturn float64

	DrawdownBreaches []ThresholdProbability
	TailRisks        []TailRisk

	// UnstableRuns carries the batch's numeric-instability count through
	// to consumers of the statistics.
	UnstableRuns int
}

// Partial reports whether these statistics were computed from a batch cut
// short by cancellation.
func (s *RiskStatistics) Partial() bool {
	return s.Completed < s.Requested
}
