package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trade-risk-lab/internal/idhash"
	"trade-risk-lab/internal/metrics"
	"trade-risk-lab/internal/storage"
)

// Generator produces reports from stored batch data.
type Generator struct {
	batchStore      storage.BatchStore
	runSummaryStore storage.RunSummaryStore
	statsStore      storage.RiskStatisticsStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	batchStore storage.BatchStore,
	runSummaryStore storage.RunSummaryStore,
	statsStore storage.RiskStatisticsStore,
) *Generator {
	return &Generator{
		batchStore:      batchStore,
		runSummaryStore: runSummaryStore,
		statsStore:      statsStore,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report for one batch from the stores. Curve bands
// are not persisted, so bands may be nil; pass the bands computed from a
// live batch to include them.
func (g *Generator) Generate(ctx context.Context, batchID string, bands []metrics.CurveBand) (*Report, error) {
	record, err := g.batchStore.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch record: %w", err)
	}

	stats, err := g.statsStore.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load risk statistics: %w", err)
	}

	summaries, err := g.runSummaryStore.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load run summaries: %w", err)
	}

	return &Report{
		GeneratedAt:  g.now(),
		BatchID:      record.BatchID,
		ShortID:      idhash.ShortBatchID(record.BatchID),
		OutcomeCount: record.OutcomeCount,
		TradesPerSim: record.TradesPerSim,
		Requested:    record.Requested,
		Completed:    record.Completed,
		Seed:         record.Seed,
		Partial:      record.Completed < record.Requested,
		UnstableRuns: record.UnstableRuns,
		Statistics:   *stats,
		RunSummaries: summaries,
		CurveBands:   bands,
	}, nil
}

// WriteArtifacts writes the Markdown report, the per-run CSV, and the
// results JSON into dir. File names carry the batch's short ID so
// artifacts from different batches can live side by side.
func (g *Generator) WriteArtifacts(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("risk_report_%s.md", r.ShortID))
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("run_summaries_%s.csv", r.ShortID))
	if err := os.WriteFile(csvPath, []byte(RenderCSV(r.RunSummaries)), 0o644); err != nil {
		return fmt.Errorf("write run summaries csv: %w", err)
	}

	data, err := RenderResultsJSON(&r.Statistics)
	if err != nil {
		return fmt.Errorf("render results json: %w", err)
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("monte_carlo_results_%s.json", r.ShortID))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write results json: %w", err)
	}

	return nil
}
