// Package orchestrator provides end-to-end pipeline orchestration.
// It coordinates: trade loading → outcome preparation → simulation →
// statistics → persistence → reporting.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/metrics"
	"trade-risk-lab/internal/observability"
	"trade-risk-lab/internal/reporting"
	"trade-risk-lab/internal/simulation"
	"trade-risk-lab/internal/storage"
)

// ErrNoClosedTrades is returned when the trade store holds no closed trades.
var ErrNoClosedTrades = errors.New("no closed trades found")

// DefaultBandPercentiles are the equity-curve band percentiles rendered
// when curves are retained.
var DefaultBandPercentiles = []float64{0.05, 0.25, 0.50, 0.75, 0.95}

// Orchestrator coordinates the full pipeline execution.
type Orchestrator struct {
	tradeStore      storage.TradeStore
	batchStore      storage.BatchStore
	runSummaryStore storage.RunSummaryStore
	statsStore      storage.RiskStatisticsStore

	config          domain.SimConfig
	runnerOpts      simulation.RunnerOptions
	bandPercentiles []float64
	outputDir       string

	metrics *observability.Metrics
	verbose bool
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	TradeStore      storage.TradeStore
	BatchStore      storage.BatchStore
	RunSummaryStore storage.RunSummaryStore
	StatsStore      storage.RiskStatisticsStore

	// Simulation configuration
	Config        domain.SimConfig
	RunnerOptions simulation.RunnerOptions

	// BandPercentiles for equity-curve bands; used only when
	// RunnerOptions.RetainCurves > 0. Nil means DefaultBandPercentiles.
	BandPercentiles []float64

	// OutputDir receives report artifacts; empty disables writing.
	OutputDir string

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	bands := opts.BandPercentiles
	if bands == nil {
		bands = DefaultBandPercentiles
	}
	return &Orchestrator{
		tradeStore:      opts.TradeStore,
		batchStore:      opts.BatchStore,
		runSummaryStore: opts.RunSummaryStore,
		statsStore:      opts.StatsStore,
		config:          opts.Config,
		runnerOpts:      opts.RunnerOptions,
		bandPercentiles: bands,
		outputDir:       opts.OutputDir,
		metrics:         opts.Metrics,
		verbose:         opts.Verbose,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	BatchID       string
	OutcomeCount  int
	OutcomeSource string // "r_multiple" or "close_profit"
	TradesPerSim  int
	Batch         *domain.SimulationBatch
	Statistics    *domain.RiskStatistics
	Report        *reporting.Report
}

// Run executes the full pipeline.
//
// A cancelled simulation does not abort the pipeline: the completed
// subset is persisted and reported as a partial batch, and the context
// error is returned alongside the result.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Load trades and prepare outcomes
	o.log("Phase 1: Loading closed trades...")
	var trades []*domain.Trade
	err := o.instrument("postgres", "get_closed_trades", func() error {
		var err error
		trades, err = o.tradeStore.GetClosed(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load trades) failed: %w", err)
	}
	if len(trades) == 0 {
		return nil, ErrNoClosedTrades
	}

	values, source := domain.OutcomesFromTrades(trades)
	set, err := domain.NewOutcomeSet(values)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (prepare outcomes) failed: %w", err)
	}
	result.OutcomeCount = set.Len()
	result.OutcomeSource = source
	result.TradesPerSim = o.config.TradesFor(set.Len())
	o.log("  Using %s for %d trades", source, set.Len())
	if o.metrics != nil {
		o.metrics.TradesIngested.Add(float64(len(trades)))
		o.metrics.OutcomesPrepared.Set(float64(set.Len()))
		if rejected := len(trades) - set.Len(); rejected > 0 && source == domain.OutcomeSourceRMultiple {
			o.metrics.TradesRejected.WithLabelValues("missing_r_multiple").Add(float64(rejected))
		}
	}

	// Phase 2: Simulation
	o.log("Phase 2: Running %d simulations with %d trades each...",
		o.config.NumSimulations, o.config.TradesFor(set.Len()))
	started := o.now()
	if o.metrics != nil {
		o.metrics.ActiveSimulations.Inc()
	}
	batch, simErr := simulation.NewRunner(o.runnerOpts).Run(ctx, set, o.config)
	if o.metrics != nil {
		o.metrics.ActiveSimulations.Dec()
	}
	if batch == nil {
		return nil, fmt.Errorf("phase 2 (simulation) failed: %w", simErr)
	}
	result.BatchID = batch.BatchID
	result.Batch = batch
	if simErr != nil {
		o.log("  Simulation cancelled after %d of %d runs", batch.Completed, batch.Requested)
	} else {
		o.log("  Completed %d runs", batch.Completed)
	}
	if o.metrics != nil {
		status := "complete"
		if batch.Partial() {
			status = "partial"
		}
		o.metrics.RecordBatch(status, batch.Completed, o.now().Sub(started).Seconds())
		o.metrics.UnstableRunsTotal.Add(float64(batch.UnstableRuns))
	}

	if batch.Completed == 0 {
		return result, simErr
	}

	// Phase 3: Statistics
	o.log("Phase 3: Computing risk statistics...")
	stats, err := metrics.ComputeRiskStatistics(batch, o.config)
	if err != nil {
		return result, fmt.Errorf("phase 3 (statistics) failed: %w", err)
	}
	result.Statistics = stats
	if o.metrics != nil {
		o.metrics.StatisticsComputed.Inc()
	}

	// Phase 4: Persistence
	o.log("Phase 4: Persisting batch %s...", batch.BatchID)
	if err := o.persist(ctx, set.Len(), batch, stats); err != nil {
		return result, fmt.Errorf("phase 4 (persistence) failed: %w", err)
	}

	// Phase 5: Reporting
	o.log("Phase 5: Generating report...")
	report, err := o.report(ctx, batch)
	if err != nil {
		return result, fmt.Errorf("phase 5 (reporting) failed: %w", err)
	}
	result.Report = report
	if o.metrics != nil {
		o.metrics.ReportsGenerated.Inc()
	}

	o.log("Pipeline completed: batch %s, %d runs, %d outcomes",
		batch.BatchID, batch.Completed, set.Len())

	return result, simErr
}

// persist writes batch metadata, run summaries, and statistics. A batch
// that is already stored (same outcomes, same configuration) is left
// untouched.
func (o *Orchestrator) persist(ctx context.Context, outcomeCount int, batch *domain.SimulationBatch, stats *domain.RiskStatistics) error {
	record := &domain.BatchRecord{
		BatchID:      batch.BatchID,
		CreatedAt:    o.now().Unix(),
		OutcomeCount: outcomeCount,
		TradesPerSim: o.config.TradesFor(outcomeCount),
		Requested:    batch.Requested,
		Completed:    batch.Completed,
		Seed:         o.config.Seed,
		UnstableRuns: batch.UnstableRuns,
	}

	err := o.instrument("postgres", "insert_batch", func() error {
		return o.batchStore.Insert(ctx, record)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.log("  Batch %s already stored, skipping persistence", batch.BatchID)
			return nil
		}
		return fmt.Errorf("insert batch record: %w", err)
	}

	err = o.instrument("clickhouse", "insert_run_summaries", func() error {
		return o.runSummaryStore.InsertBulk(ctx, batch.BatchID, batch.Summaries())
	})
	if err != nil {
		return fmt.Errorf("insert run summaries: %w", err)
	}

	err = o.instrument("clickhouse", "insert_statistics", func() error {
		return o.statsStore.Insert(ctx, stats)
	})
	if err != nil {
		return fmt.Errorf("insert risk statistics: %w", err)
	}

	return nil
}

// instrument times a store call when metrics are enabled.
func (o *Orchestrator) instrument(database, operation string, fn func() error) error {
	if o.metrics == nil {
		return fn()
	}
	start := time.Now()
	err := fn()
	o.metrics.RecordDBQuery(database, operation, time.Since(start).Seconds(), err)
	return err
}

// report builds the report from the stores and writes artifacts when an
// output directory is configured.
func (o *Orchestrator) report(ctx context.Context, batch *domain.SimulationBatch) (*reporting.Report, error) {
	var bands []metrics.CurveBand
	if len(batch.Curves) > 0 {
		var err error
		bands, err = metrics.CurveBands(batch.Curves, o.bandPercentiles)
		if err != nil {
			return nil, fmt.Errorf("compute curve bands: %w", err)
		}
	}

	gen := reporting.NewGenerator(o.batchStore, o.runSummaryStore, o.statsStore).
		WithClock(o.now)
	report, err := gen.Generate(ctx, batch.BatchID, bands)
	if err != nil {
		return nil, err
	}

	if o.outputDir != "" {
		if err := gen.WriteArtifacts(o.outputDir, report); err != nil {
			return nil, err
		}
		o.log("  Artifacts written to %s", o.outputDir)
	}

	return report, nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
