// Package main provides a long-running risk analysis service:
// - Simulation (on demand): POST /simulate runs the pipeline
// - Progress (streaming): /ws/progress pushes run completion over WebSocket
// - Observability: /metrics (Prometheus), /health, /status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/ingestion"
	"trade-risk-lab/internal/observability"
	"trade-risk-lab/internal/orchestrator"
	"trade-risk-lab/internal/simulation"
	"trade-risk-lab/internal/storage"
	chstore "trade-risk-lab/internal/storage/clickhouse"
	"trade-risk-lab/internal/storage/memory"
	pgstore "trade-risk-lab/internal/storage/postgres"
)

// Server holds all components of the risk analysis service.
type Server struct {
	stores    *serverStores
	outputDir string
	workers   int
	logger    *log.Logger

	hub *progressHub

	// State
	mu                sync.Mutex
	simulationRunning bool
	lastRun           time.Time
	lastBatchID       string
	runs              int
	started           time.Time
}

// serverStores holds all storage implementations.
type serverStores struct {
	tradeStore      storage.TradeStore
	batchStore      storage.BatchStore
	runSummaryStore storage.RunSummaryStore
	statsStore      storage.RiskStatisticsStore
}

func main() {
	// Parse flags (env vars as defaults)
	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	tradesPath := flag.String("trades", "", "Trades CSV export to preload at startup")
	outputDir := flag.String("output-dir", "reports", "Output directory for report artifacts")
	workers := flag.Int("workers", 0, "Number of simulation workers (default: GOMAXPROCS)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *tradesPath != "" {
		if err := preloadTrades(ctx, stores.tradeStore, *tradesPath, logger); err != nil {
			logger.Fatalf("Failed to preload trades: %v", err)
		}
	}

	server := &Server{
		stores:    stores,
		outputDir: *outputDir,
		workers:   *workers,
		logger:    logger,
		hub:       newProgressHub(),
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/simulate", server.handleSimulate(ctx))
	mux.HandleFunc("/ws/progress", server.handleProgressWS)

	httpServer := &http.Server{Addr: *addr, Handler: mux}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*serverStores, func(), error) {
	if useMemory {
		stores := &serverStores{
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

	stores := &serverStores{
		tradeStore:      pgstore.NewTradeStore(pool),
		batchStore:      pgstore.NewBatchStore(pool),
		runSummaryStore: chstore.NewRunSummaryStore(chConn),
		statsStore:      chstore.NewRiskStatisticsStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// preloadTrades loads a trades CSV export into the trade store.
func preloadTrades(ctx context.Context, store storage.TradeStore, path string, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trades file: %w", err)
	}
	defer f.Close()

	file, err := ingestion.ReadTrades(f)
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}

	if err := store.InsertBulk(ctx, file.Trades); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Printf("Trades already ingested, reusing stored trades")
			return nil
		}
		return err
	}
	logger.Printf("Preloaded %d trades from %s", len(file.Trades), path)
	return nil
}

// SimulateRequest is the JSON body for POST /simulate.
type SimulateRequest struct {
	Simulations  int       `json:"simulations"`
	TradesPerSim int       `json:"trades_per_sim"`
	Seed         int64     `json:"seed"`
	Thresholds   []float64 `json:"thresholds,omitempty"`
	VaRLevels    []float64 `json:"var_levels,omitempty"`
	RetainCurves int       `json:"retain_curves"`
}

// SimulateResponse acknowledges an accepted simulation.
type SimulateResponse struct {
	Status string `json:"status"`
}

// handleSimulate starts a pipeline run in the background. Only one
// simulation runs at a time.
func (s *Server) handleSimulate(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req SimulateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		cfg := domain.DefaultSimConfig(req.Seed)
		if req.Simulations > 0 {
			cfg.NumSimulations = req.Simulations
		}
		cfg.TradesPerSim = req.TradesPerSim
		if req.Thresholds != nil {
			cfg.DrawdownThresholds = req.Thresholds
		}
		if req.VaRLevels != nil {
			cfg.VaRLevels = req.VaRLevels
		}
		if err := cfg.Validate(); err != nil {
			http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		if s.simulationRunning {
			s.mu.Unlock()
			http.Error(w, "simulation already running", http.StatusConflict)
			return
		}
		s.simulationRunning = true
		s.mu.Unlock()

		go s.runSimulation(ctx, cfg, req.RetainCurves)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(SimulateResponse{Status: "started"})
	}
}

// runSimulation executes the pipeline and broadcasts progress.
func (s *Server) runSimulation(ctx context.Context, cfg domain.SimConfig, retainCurves int) {
	defer func() {
		s.mu.Lock()
		s.simulationRunning = false
		s.lastRun = time.Now()
		s.runs++
		s.mu.Unlock()
	}()

	s.logger.Printf("Running %d simulations (seed %d)...", cfg.NumSimulations, cfg.Seed)
	start := time.Now()

	orch := orchestrator.New(orchestrator.Options{
		TradeStore:      s.stores.tradeStore,
		BatchStore:      s.stores.batchStore,
		RunSummaryStore: s.stores.runSummaryStore,
		StatsStore:      s.stores.statsStore,
		Config:          cfg,
		RunnerOptions: simulation.RunnerOptions{
			Workers:      s.workers,
			RetainCurves: retainCurves,
			Progress:     s.hub,
		},
		OutputDir: s.outputDir,
		Metrics:   observability.DefaultMetrics,
		Verbose:   true,
	})

	result, err := orch.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Printf("Simulation error: %v", err)
		s.hub.broadcastError(err)
		return
	}
	if result == nil {
		return
	}

	s.mu.Lock()
	s.lastBatchID = result.BatchID
	s.mu.Unlock()

	s.hub.broadcastDone(result.BatchID)
	s.logger.Printf("Simulation completed in %v: batch %s", time.Since(start), result.BatchID)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status            string    `json:"status"`
	Uptime            string    `json:"uptime"`
	SimulationRunning bool      `json:"simulation_running"`
	LastRun           time.Time `json:"last_run,omitempty"`
	LastBatchID       string    `json:"last_batch_id,omitempty"`
	Runs              int       `json:"runs"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:            "running",
		Uptime:            time.Since(s.started).String(),
		SimulationRunning: s.simulationRunning,
		LastRun:           s.lastRun,
		LastBatchID:       s.lastBatchID,
		Runs:              s.runs,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleProgressWS upgrades the connection and subscribes it to
// simulation progress events.
func (s *Server) handleProgressWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade error: %v", err)
		return
	}
	s.hub.add(conn)
}

// ProgressEvent is one message on the progress stream.
type ProgressEvent struct {
	Type      string `json:"type"` // "progress", "done", "error"
	Completed int    `json:"completed,omitempty"`
	Total     int    `json:"total,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// progressHub fans simulation progress out to WebSocket subscribers.
// It implements simulation.Observer.
type progressHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newProgressHub() *progressHub {
	return &progressHub{clients: make(map[*websocket.Conn]struct{})}
}

// Compile-time interface check.
var _ simulation.Observer = (*progressHub)(nil)

func (h *progressHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

// RunsCompleted broadcasts a progress event to all subscribers.
func (h *progressHub) RunsCompleted(completed, total int) {
	h.broadcast(ProgressEvent{Type: "progress", Completed: completed, Total: total})
}

func (h *progressHub) broadcastDone(batchID string) {
	h.broadcast(ProgressEvent{Type: "done", BatchID: batchID})
}

func (h *progressHub) broadcastError(err error) {
	h.broadcast(ProgressEvent{Type: "error", Error: err.Error()})
}

// broadcast sends the event to every subscriber, dropping connections
// that fail to write.
func (h *progressHub) broadcast(event ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
