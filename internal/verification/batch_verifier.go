package verification

import (
	"context"
	"errors"
	"fmt"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/simulation"
	"trade-risk-lab/internal/storage"
)

// ErrPartialBatch is returned when verifying a batch that was cut short:
// its stored summaries are a worker-dependent subset that cannot be
// mapped back to run indices.
var ErrPartialBatch = errors.New("cannot verify a partial batch")

// BatchVerifier re-executes stored batches against the current trades.
type BatchVerifier struct {
	tradeStore      storage.TradeStore
	batchStore      storage.BatchStore
	runSummaryStore storage.RunSummaryStore
	workers         int
}

// BatchVerifierOptions for creating BatchVerifier.
type BatchVerifierOptions struct {
	TradeStore      storage.TradeStore
	BatchStore      storage.BatchStore
	RunSummaryStore storage.RunSummaryStore

	// Workers for the replay run. Zero means GOMAXPROCS; the result does
	// not depend on it.
	Workers int
}

// NewBatchVerifier creates a new BatchVerifier.
func NewBatchVerifier(opts BatchVerifierOptions) *BatchVerifier {
	return &BatchVerifier{
		tradeStore:      opts.TradeStore,
		batchStore:      opts.BatchStore,
		runSummaryStore: opts.RunSummaryStore,
		workers:         opts.Workers,
	}
}

// VerifyBatch loads a batch's record and summaries, rebuilds the outcome
// set from the current trades, re-executes the batch with the recorded
// seed, and compares every run summary.
func (v *BatchVerifier) VerifyBatch(ctx context.Context, batchID string) (*VerificationReport, error) {
	record, err := v.batchStore.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch record: %w", err)
	}
	if record.Completed < record.Requested {
		return nil, ErrPartialBatch
	}

	stored, err := v.runSummaryStore.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load run summaries: %w", err)
	}

	report := &VerificationReport{
		BatchID:     batchID,
		ConfigMatch: true,
	}

	trades, err := v.tradeStore.GetClosed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	values, _ := domain.OutcomesFromTrades(trades)
	if len(values) != record.OutcomeCount {
		report.ConfigMatch = false
		report.Divergences = append(report.Divergences, RunDivergence{
			RunIndex: -1,
			Divergences: []FieldDivergence{{
				Field:    "OutcomeCount",
				Expected: record.OutcomeCount,
				Actual:   len(values),
			}},
		})
		return report, nil
	}

	set, err := domain.NewOutcomeSet(values)
	if err != nil {
		return nil, fmt.Errorf("rebuild outcome set: %w", err)
	}

	cfg := domain.DefaultSimConfig(record.Seed)
	cfg.NumSimulations = record.Requested
	cfg.TradesPerSim = record.TradesPerSim

	replayed, err := simulation.NewRunner(simulation.RunnerOptions{Workers: v.workers}).
		Run(ctx, set, cfg)
	if err != nil {
		return nil, fmt.Errorf("replay batch: %w", err)
	}

	replayedSummaries := replayed.Summaries()
	if len(stored) != len(replayedSummaries) {
		report.ConfigMatch = false
		report.Divergences = append(report.Divergences, RunDivergence{
			RunIndex: -1,
			Divergences: []FieldDivergence{{
				Field:    "RunCount",
				Expected: len(stored),
				Actual:   len(replayedSummaries),
			}},
		})
		return report, nil
	}

	report.TotalRuns = len(stored)
	for i := range stored {
		divergences := CompareRunSummaries(stored[i], replayedSummaries[i])
		if len(divergences) == 0 {
			report.MatchedRuns++
			continue
		}
		report.DivergentRuns++
		report.Divergences = append(report.Divergences, RunDivergence{
			RunIndex:    i,
			Divergences: divergences,
		})
	}

	return report, nil
}
