// Package main re-executes a stored simulation batch and compares every
// run summary against what was persisted. Simulations are deterministic
// for a given seed, so a complete batch must replay bit-identically.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	chstore "trade-risk-lab/internal/storage/clickhouse"
	pgstore "trade-risk-lab/internal/storage/postgres"
	"trade-risk-lab/internal/verification"
)

func main() {
	// Parse flags
	batchID := flag.String("batch-id", "", "Batch ID to verify (required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	workers := flag.Int("workers", 0, "Replay worker count (0 = GOMAXPROCS)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	// Setup structured logger
	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

	// Validate required flags
	if *batchID == "" {
		logger.Fatal("--batch-id is required")
	}
	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer chConn.Close()

	verifier := verification.NewBatchVerifier(verification.BatchVerifierOptions{
		TradeStore:      pgstore.NewTradeStore(pool),
		BatchStore:      pgstore.NewBatchStore(pool),
		RunSummaryStore: chstore.NewRunSummaryStore(chConn),
		Workers:         *workers,
	})

	logger.Printf("Replaying batch %s...", *batchID)
	report, err := verifier.VerifyBatch(ctx, *batchID)
	if err != nil {
		if errors.Is(err, verification.ErrPartialBatch) {
			logger.Fatalf("batch %s is partial; only complete batches can be verified", *batchID)
		}
		logger.Fatalf("verify batch: %v", err)
	}

	// Output summary
	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\n=== Verification Report ===\n")
		fmt.Printf("Batch ID:       %s\n", report.BatchID)
		fmt.Printf("Config Match:   %v\n", report.ConfigMatch)
		fmt.Printf("Total Runs:     %d\n", report.TotalRuns)
		fmt.Printf("Matched Runs:   %d\n", report.MatchedRuns)
		fmt.Printf("Divergent Runs: %d\n", report.DivergentRuns)
		for _, run := range report.Divergences {
			for _, d := range run.Divergences {
				fmt.Printf("  run %d: %s stored=%v replayed=%v\n",
					run.RunIndex, d.Field, d.Expected, d.Actual)
			}
		}
	}

	if !report.Match() {
		os.Exit(1)
	}
	fmt.Println("\nBatch verified: replay matches stored results.")
}
