// Package reporting renders the results of a simulation batch as
// Markdown, CSV, and JSON artifacts.
package reporting

import (
	"time"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/metrics"
)

// Report is the renderable view of one simulation batch: its metadata,
// the derived risk statistics, the per-run summaries, and optionally the
// percentile bands of the retained equity curves.
type Report struct {
	GeneratedAt time.Time

	// Batch metadata
	BatchID      string
	ShortID      string
	OutcomeCount int
	TradesPerSim int
	Requested    int
	Completed    int
	Seed         int64
	Partial      bool
	UnstableRuns int

	Statistics domain.RiskStatistics

	// RunSummaries in run order, for the CSV artifact.
	RunSummaries []domain.RunSummary

	// CurveBands is empty unless the batch retained equity curves.
	CurveBands []metrics.CurveBand
}
