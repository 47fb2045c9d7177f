package metrics

import (
	"context"
	"fmt"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// Aggregator recomputes risk statistics from persisted run summaries and
// stores the result. It lets reports be regenerated, or statistics
// recomputed under a different threshold/level configuration, without
// re-running the simulations.
type Aggregator struct {
	batchStore      storage.BatchStore
	runSummaryStore storage.RunSummaryStore
	statsStore      storage.RiskStatisticsStore
}

// NewAggregator creates a new statistics aggregator. statsStore may be
// nil when the caller only wants the computed value back.
func NewAggregator(batchStore storage.BatchStore, runStore storage.RunSummaryStore, statsStore storage.RiskStatisticsStore) *Aggregator {
	return &Aggregator{
		batchStore:      batchStore,
		runSummaryStore: runStore,
		statsStore:      statsStore,
	}
}

// ComputeAndStore rebuilds the batch from storage, reduces it under cfg's
// thresholds and VaR levels, and persists the statistics.
// Returns ErrNoRuns via ComputeRiskStatistics if the batch is empty.
func (a *Aggregator) ComputeAndStore(ctx context.Context, batchID string, cfg domain.SimConfig) (*domain.RiskStatistics, error) {
	record, err := a.batchStore.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	summaries, err := a.runSummaryStore.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load run summaries for %s: %w", batchID, err)
	}

	batch := rebuildBatch(record, summaries)
	stats, err := ComputeRiskStatistics(batch, cfg)
	if err != nil {
		return nil, err
	}

	if a.statsStore != nil {
		if err := a.statsStore.Insert(ctx, stats); err != nil {
			return nil, fmt.Errorf("store statistics for %s: %w", batchID, err)
		}
	}
	return stats, nil
}

// rebuildBatch reconstitutes the parallel-slice batch form from stored
// metadata and run-ordered summaries.
func rebuildBatch(record *domain.BatchRecord, summaries []domain.RunSummary) *domain.SimulationBatch {
	batch := &domain.SimulationBatch{
		BatchID:         record.BatchID,
		Requested:       record.Requested,
		Completed:       len(summaries),
		TerminalReturns: make([]float64, len(summaries)),
		MaxDrawdowns:    make([]float64, len(summaries)),
		WinRates:        make([]float64, len(summaries)),
		UnstableRuns:    record.UnstableRuns,
	}
	for i, s := range summaries {
		batch.TerminalReturns[i] = s.TerminalReturn
		batch.MaxDrawdowns[i] = s.MaxDrawdown
		batch.WinRates[i] = s.WinRate
	}
	return batch
}
