// Package main provides the Monte Carlo bootstrap analysis entry point.
// Executes: trade loading → simulation → statistics → reporting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/ingestion"
	"trade-risk-lab/internal/orchestrator"
	"trade-risk-lab/internal/reporting"
	"trade-risk-lab/internal/simulation"
	"trade-risk-lab/internal/storage"
	chstore "trade-risk-lab/internal/storage/clickhouse"
	"trade-risk-lab/internal/storage/memory"
	pgstore "trade-risk-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	tradesPath := flag.String("trades", "", "Path to trades CSV export (omit to reuse trades already stored)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	simulations := flag.Int("simulations", domain.DefaultNumSimulations, "Number of Monte Carlo simulations")
	tradesPerSim := flag.Int("trades-per-sim", 0, "Number of trades per simulation (default: same as historical)")
	seed := flag.Int64("seed", 42, "Base seed for deterministic resampling")
	workers := flag.Int("workers", 0, "Number of simulation workers (default: GOMAXPROCS)")
	retainCurves := flag.Int("retain-curves", 0, "Number of equity curves to retain for band rendering")
	thresholds := flag.String("thresholds", "", "Comma-separated negative drawdown thresholds (default: -3,-5,-10)")
	varLevels := flag.String("var-levels", "", "Comma-separated VaR tail levels (default: 0.05,0.01)")
	outputDir := flag.String("output-dir", "reports", "Output directory for result artifacts")
	jsonOut := flag.Bool("json", false, "Print results as JSON instead of text")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stderr, "[mcboot] ", log.LstdFlags)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}
	if *useMemory && *tradesPath == "" {
		logger.Fatal("--trades is required with --use-memory")
	}

	cfg, err := buildConfig(*simulations, *tradesPerSim, *seed, *thresholds, *varLevels)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *tradesPath != "" {
		if err := ingestTrades(ctx, stores.tradeStore, *tradesPath, logger); err != nil {
			logger.Fatalf("Failed to ingest trades: %v", err)
		}
	}

	orch := orchestrator.New(orchestrator.Options{
		TradeStore:      stores.tradeStore,
		BatchStore:      stores.batchStore,
		RunSummaryStore: stores.runSummaryStore,
		StatsStore:      stores.statsStore,
		Config:          cfg,
		RunnerOptions: simulation.RunnerOptions{
			Workers:      *workers,
			RetainCurves: *retainCurves,
			Progress:     simulation.LogObserver{Logger: logger},
		},
		OutputDir: *outputDir,
		Verbose:   *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Pipeline error: %v", err)
	}
	if errors.Is(err, context.Canceled) {
		logger.Printf("Cancelled; reporting the partial batch")
	}
	if result == nil || result.Statistics == nil {
		logger.Fatal("No results produced")
	}

	if *jsonOut {
		data, err := reporting.RenderResultsJSON(result.Statistics)
		if err != nil {
			logger.Fatalf("Failed to render JSON: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	printResults(result)
	fmt.Printf("\nArtifacts written to %s/\n", *outputDir)
}

// mcbootStores holds the storage implementations the pipeline needs.
type mcbootStores struct {
	tradeStore      storage.TradeStore
	batchStore      storage.BatchStore
	runSummaryStore storage.RunSummaryStore
	statsStore      storage.RiskStatisticsStore
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*mcbootStores, func(), error) {
	if useMemory {
		stores := &mcbootStores{
			tradeStore:      memory.NewTradeStore(),
			batchStore:      memory.NewBatchStore(),
			runSummaryStore: memory.NewRunSummaryStore(),
			statsStore:      memory.NewRiskStatisticsStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &mcbootStores{
		// PostgreSQL stores (trades + batch metadata)
		tradeStore: pgstore.NewTradeStore(pool),
		batchStore: pgstore.NewBatchStore(pool),

		// ClickHouse stores (per-run summaries + statistics)
		runSummaryStore: chstore.NewRunSummaryStore(chConn),
		statsStore:      chstore.NewRiskStatisticsStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// ingestTrades loads a trades CSV export into the trade store. Trades
// already stored are left untouched.
func ingestTrades(ctx context.Context, store storage.TradeStore, path string, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trades file: %w", err)
	}
	defer f.Close()

	file, err := ingestion.ReadTrades(f)
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}
	logger.Printf("Loaded %d trades from %s", len(file.Trades), path)

	if err := store.InsertBulk(ctx, file.Trades); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Printf("Trades already ingested, reusing stored trades")
			return nil
		}
		return err
	}
	return nil
}

// buildConfig assembles the simulation configuration from flags.
func buildConfig(simulations, tradesPerSim int, seed int64, thresholds, varLevels string) (domain.SimConfig, error) {
	cfg := domain.DefaultSimConfig(seed)
	cfg.NumSimulations = simulations
	cfg.TradesPerSim = tradesPerSim

	if thresholds != "" {
		vals, err := parseFloats(thresholds)
		if err != nil {
			return cfg, fmt.Errorf("parse --thresholds: %w", err)
		}
		cfg.DrawdownThresholds = vals
	}
	if varLevels != "" {
		vals, err := parseFloats(varLevels)
		if err != nil {
			return cfg, fmt.Errorf("parse --var-levels: %w", err)
		}
		cfg.VaRLevels = vals
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseFloats parses a comma-separated float list.
func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// printResults prints the statistics sections to stdout.
func printResults(result *orchestrator.RunResult) {
	s := result.Statistics

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("MONTE CARLO SIMULATION RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Batch: %s\n", result.BatchID)
	fmt.Printf("Simulations run: %d", s.Completed)
	if s.Partial() {
		fmt.Printf(" (partial, %d requested)", s.Requested)
	}
	fmt.Println()
	fmt.Printf("Trades per simulation: %d\n", result.TradesPerSim)
	fmt.Printf("Outcome source: %s\n", result.OutcomeSource)
	if s.UnstableRuns > 0 {
		fmt.Printf("Unstable runs: %d\n", s.UnstableRuns)
	}
	fmt.Println()

	fmt.Println("FINAL RETURN STATISTICS:")
	fmt.Printf("  Mean: %.3f\n", s.TerminalReturn.Mean)
	fmt.Printf("  Median: %.3f\n", s.TerminalReturn.P50)
	fmt.Printf("  Standard Deviation: %.3f\n", s.TerminalReturn.Stddev)
	fmt.Printf("  5th Percentile: %.3f\n", s.TerminalReturn.P5)
	fmt.Printf("  95th Percentile: %.3f\n", s.TerminalReturn.P95)
	fmt.Printf("  Probability of Positive Return: %.1f%%\n", s.ProbPositiveReturn*100)
	fmt.Println()

	fmt.Println("DRAWDOWN STATISTICS:")
	fmt.Printf("  Mean Max Drawdown: %.3f\n", s.MaxDrawdown.Mean)
	fmt.Printf("  Median Max Drawdown: %.3f\n", s.MaxDrawdown.P50)
	fmt.Printf("  5th Percentile (Worst): %.3f\n", s.MaxDrawdown.P5)
	for _, b := range s.DrawdownBreaches {
		fmt.Printf("  Probability of Drawdown > %gR: %.1f%%\n", -b.Threshold, b.Probability*100)
	}
	fmt.Println()

	fmt.Println("RISK METRICS:")
	for _, t := range s.TailRisks {
		fmt.Printf("  VaR (%g%%): %.3f\n", t.Level*100, t.VaR)
	}
	for _, t := range s.TailRisks {
		fmt.Printf("  Expected Shortfall (%g%%): %.3f\n", t.Level*100, t.CVaR)
	}
}
