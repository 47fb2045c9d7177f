// Package main regenerates report artifacts for a stored simulation batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"trade-risk-lab/internal/reporting"
	chstore "trade-risk-lab/internal/storage/clickhouse"
	pgstore "trade-risk-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	batchID := flag.String("batch-id", "", "Batch to report on (default: most recent)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	listBatches := flag.Bool("list", false, "List stored batches and exit")
	flag.Parse()

	ctx := context.Background()

	if *postgresDSN == "" || *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn and --clickhouse-dsn are required")
		os.Exit(1)
	}

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer chConn.Close()

	batchStore := pgstore.NewBatchStore(pool)
	runSummaryStore := chstore.NewRunSummaryStore(chConn)
	statsStore := chstore.NewRiskStatisticsStore(chConn)

	if *listBatches {
		records, err := batchStore.GetAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing batches: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Println("No batches stored.")
			return
		}
		fmt.Printf("%-64s  %-10s  %-9s  %s\n", "BATCH_ID", "CREATED", "COMPLETED", "SEED")
		for _, r := range records {
			fmt.Printf("%-64s  %-10d  %-9d  %d\n", r.BatchID, r.CreatedAt, r.Completed, r.Seed)
		}
		return
	}

	id := *batchID
	if id == "" {
		records, err := batchStore.GetAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading batches: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no batches stored; run mcboot first")
			os.Exit(1)
		}
		// GetAll is ordered by created_at ASC; take the newest.
		id = records[len(records)-1].BatchID
	}

	gen := reporting.NewGenerator(batchStore, runSummaryStore, statsStore)
	report, err := gen.Generate(ctx, id, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := gen.WriteArtifacts(*outputDir, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing artifacts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Report generated successfully:")
	fmt.Printf("  - %s/risk_report_%s.md\n", *outputDir, report.ShortID)
	fmt.Printf("  - %s/run_summaries_%s.csv\n", *outputDir, report.ShortID)
	fmt.Printf("  - %s/monte_carlo_results_%s.json\n", *outputDir, report.ShortID)
}
