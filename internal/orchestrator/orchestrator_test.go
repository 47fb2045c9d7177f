package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/observability"
	"trade-risk-lab/internal/simulation"
	"trade-risk-lab/internal/storage/memory"
)

type testStores struct {
	tradeStore      *memory.TradeStore
	batchStore      *memory.BatchStore
	runSummaryStore *memory.RunSummaryStore
	statsStore      *memory.RiskStatisticsStore
}

func createTestStores() *testStores {
	return &testStores{
		tradeStore:      memory.NewTradeStore(),
		batchStore:      memory.NewBatchStore(),
		runSummaryStore: memory.NewRunSummaryStore(),
		statsStore:      memory.NewRiskStatisticsStore(),
	}
}

func ptr(v float64) *float64 { return &v }

func seedTrades(t *testing.T, stores *testStores, trades []*domain.Trade) {
	t.Helper()
	if err := stores.tradeStore.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("seed trades: %v", err)
	}
}

func testOptions(stores *testStores) Options {
	cfg := domain.DefaultSimConfig(42)
	cfg.NumSimulations = 200
	return Options{
		TradeStore:      stores.tradeStore,
		BatchStore:      stores.batchStore,
		RunSummaryStore: stores.runSummaryStore,
		StatsStore:      stores.statsStore,
		Config:          cfg,
		RunnerOptions:   simulation.RunnerOptions{Workers: 2},
	}
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "t-1", ClosedAt: 100, CloseProfit: 0.02, RMultiple: ptr(1.5)},
		{TradeID: "t-2", ClosedAt: 200, CloseProfit: -0.01, RMultiple: ptr(-1.0)},
		{TradeID: "t-3", ClosedAt: 300, CloseProfit: 0.03, RMultiple: ptr(2.0)},
		{TradeID: "t-4", ClosedAt: 400, CloseProfit: -0.02, RMultiple: ptr(-0.5)},
	})

	orch := New(testOptions(stores))
	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.OutcomeCount != 4 {
		t.Errorf("OutcomeCount = %d, want 4", result.OutcomeCount)
	}
	if result.OutcomeSource != "r_multiple" {
		t.Errorf("OutcomeSource = %q, want r_multiple", result.OutcomeSource)
	}
	if result.Batch == nil || result.Batch.Completed != 200 {
		t.Fatalf("Batch not complete: %+v", result.Batch)
	}
	if result.Statistics == nil {
		t.Fatal("Statistics is nil")
	}
	if result.Report == nil {
		t.Fatal("Report is nil")
	}

	// Persistence checks
	record, err := stores.batchStore.GetByID(ctx, result.BatchID)
	if err != nil {
		t.Fatalf("batch record not persisted: %v", err)
	}
	if record.Completed != 200 || record.OutcomeCount != 4 {
		t.Errorf("record = %+v", record)
	}

	summaries, err := stores.runSummaryStore.GetByBatchID(ctx, result.BatchID)
	if err != nil {
		t.Fatalf("run summaries not persisted: %v", err)
	}
	if len(summaries) != 200 {
		t.Errorf("len(summaries) = %d, want 200", len(summaries))
	}

	stats, err := stores.statsStore.GetByBatchID(ctx, result.BatchID)
	if err != nil {
		t.Fatalf("statistics not persisted: %v", err)
	}
	if stats.Completed != 200 {
		t.Errorf("stats.Completed = %d, want 200", stats.Completed)
	}
}

func TestOrchestrator_Run_NoClosedTrades(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "open-1", IsOpen: true},
	})

	orch := New(testOptions(stores))
	_, err := orch.Run(ctx)
	if !errors.Is(err, ErrNoClosedTrades) {
		t.Fatalf("Run() error = %v, want ErrNoClosedTrades", err)
	}
}

func TestOrchestrator_Run_CloseProfitFallback(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "t-1", ClosedAt: 100, CloseProfit: 0.02},
		{TradeID: "t-2", ClosedAt: 200, CloseProfit: -0.01},
	})

	orch := New(testOptions(stores))
	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.OutcomeSource != "close_profit" {
		t.Errorf("OutcomeSource = %q, want close_profit", result.OutcomeSource)
	}
}

func TestOrchestrator_Run_IdempotentRerun(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "t-1", ClosedAt: 100, RMultiple: ptr(1.0)},
		{TradeID: "t-2", ClosedAt: 200, RMultiple: ptr(-1.0)},
	})

	orch := New(testOptions(stores))
	first, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	// Same trades, same config: same batch_id, persistence skipped.
	second, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if first.BatchID != second.BatchID {
		t.Errorf("batch ids differ: %s vs %s", first.BatchID, second.BatchID)
	}

	records, err := stores.batchStore.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "t-1", ClosedAt: 100, RMultiple: ptr(1.0)},
	})

	orch := New(testOptions(stores))
	result, err := orch.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if result == nil || result.Batch == nil {
		t.Fatal("cancelled run should still return the partial batch")
	}
	if result.Batch.Completed != 0 {
		t.Errorf("Completed = %d, want 0 for a pre-cancelled context", result.Batch.Completed)
	}
}

func TestOrchestrator_Run_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "t-1", ClosedAt: 100, CloseProfit: 0.02, RMultiple: ptr(1.5)},
		{TradeID: "t-2", ClosedAt: 200, CloseProfit: -0.01, RMultiple: ptr(-1.0)},
		{TradeID: "t-3", ClosedAt: 300, CloseProfit: 0.01}, // no r_multiple
	})

	m := observability.NewMetrics("test_orchestrator")
	opts := testOptions(stores)
	opts.Metrics = m

	if _, err := New(opts).Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	counters := []struct {
		name string
		got  float64
		want float64
	}{
		{"trades_ingested", testutil.ToFloat64(m.TradesIngested), 3},
		{"trades_rejected", testutil.ToFloat64(m.TradesRejected.WithLabelValues("missing_r_multiple")), 1},
		{"outcomes_prepared", testutil.ToFloat64(m.OutcomesPrepared), 2},
		{"runs_total", testutil.ToFloat64(m.SimulationRunsTotal), 200},
		{"batches_complete", testutil.ToFloat64(m.BatchesTotal.WithLabelValues("complete")), 1},
		{"statistics_computed", testutil.ToFloat64(m.StatisticsComputed), 1},
		{"reports_generated", testutil.ToFloat64(m.ReportsGenerated), 1},
		{"db_query_errors", testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert_batch")), 0},
	}
	for _, c := range counters {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	// One timed series per store operation: get_closed_trades, insert_batch,
	// insert_run_summaries, insert_statistics.
	if n := testutil.CollectAndCount(m.DBQueryDuration); n != 4 {
		t.Errorf("db query duration series = %d, want 4", n)
	}
}

func TestOrchestrator_Run_WritesArtifacts(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()
	seedTrades(t, stores, []*domain.Trade{
		{TradeID: "t-1", ClosedAt: 100, RMultiple: ptr(1.0)},
		{TradeID: "t-2", ClosedAt: 200, RMultiple: ptr(-0.5)},
	})

	dir := t.TempDir()
	opts := testOptions(stores)
	opts.OutputDir = dir
	opts.RunnerOptions.RetainCurves = 50

	orch := New(opts).WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("len(artifacts) = %d, want 3", len(entries))
	}

	if len(result.Report.CurveBands) != len(DefaultBandPercentiles) {
		t.Errorf("len(CurveBands) = %d, want %d",
			len(result.Report.CurveBands), len(DefaultBandPercentiles))
	}
}
