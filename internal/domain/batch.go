package domain

// RunSummary holds the three scalars that outlive a single bootstrap run.
// The full equity curve is discarded unless curve retention is enabled.
type RunSummary struct {
	TerminalReturn float64 // equity at the end of the run (sum of sampled outcomes)
	MaxDrawdown    float64 // most negative distance below the running peak, always <= 0
	WinRate        float64 // fraction of sampled outcomes > 0, in [0,1]
}

// SimulationBatch collects the per-run summaries of a finished batch in
// run order, as three parallel slices of equal length. Built once by the
// runner, read-only afterward.
type SimulationBatch struct {
	// BatchID is the deterministic identifier derived from the outcome
	// set and configuration (see idhash).
	BatchID string

	// Requested is the K the caller asked for; Completed is the number of
	// runs actually finished. They differ only when the batch was
	// cancelled mid-flight, and statistics are always computed over
	// Completed, never Requested.
	Requested int
	Completed int

	TerminalReturns []float64
	MaxDrawdowns    []float64
	WinRates        []float64

	// Curves holds the retained equity curves (each of length N+1) of the
	// first runs, in run order, when the runner was configured to retain
	// them. Empty in streaming mode.
	Curves [][]float64

	// UnstableRuns counts runs whose cumulative sum approached the
	// floating-point magnitude guard. Non-fatal; surfaced to the caller.
	UnstableRuns int
}

// Partial reports whether the batch was cut short by cancellation.
func (b *SimulationBatch) Partial() bool {
	return b.Completed < b.Requested
}

// Summaries reconstitutes the per-run summaries in run order.
func (b *SimulationBatch) Summaries() []RunSummary {
	out := make([]RunSummary, b.Completed)
	for i := range out {
		out[i] = RunSummary{
			TerminalReturn: b.TerminalReturns[i],
			MaxDrawdown:    b.MaxDrawdowns[i],
			WinRate:        b.WinRates[i],
		}
	}
	return out
}

// BatchRecord is the persisted metadata of a simulation batch.
type BatchRecord struct {
	BatchID      string
	CreatedAt    int64 // unix ms
	OutcomeCount int   // size of the historical outcome set M
	TradesPerSim int   // draws per run N
	Requested    int
	Completed    int
	Seed         int64
	UnstableRuns int
}
