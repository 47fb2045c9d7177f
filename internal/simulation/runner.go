package simulation

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/idhash"
)

// DefaultProgressInterval is the number of completed runs between
// progress notifications.
const DefaultProgressInterval = 1000

// RunnerOptions configures batch execution. These are engine concerns
// only: two option sets that differ in workers, retention or progress
// reporting still produce bit-identical batches for the same SimConfig.
type RunnerOptions struct {
	// Workers is the number of goroutines executing runs.
	// Zero means GOMAXPROCS.
	Workers int

	// RetainCurves keeps the full equity curves of the first RetainCurves
	// runs for visualization consumers. Zero (streaming mode) bounds
	// memory to O(K) regardless of trades per run.
	RetainCurves int

	// Progress receives completion notifications; nil disables them.
	Progress Observer

	// ProgressInterval is the run count between notifications.
	// Zero means DefaultProgressInterval.
	ProgressInterval int
}

// Runner executes a batch of independent bootstrap runs.
type Runner struct {
	opts RunnerOptions
}

// NewRunner creates a batch runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Progress == nil {
		opts.Progress = NopObserver{}
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Runner{opts: opts}
}

// Run executes cfg.NumSimulations bootstrap runs against the outcome set
// and collects their summaries in run order.
//
// Each run seeds its own generator from (cfg.Seed, run index) and writes
// into its own slot, so the batch content does not depend on worker count
// or scheduling. On cancellation the completed subset is compacted in run
// order and returned alongside the context error; the partial batch
// reports the actual run count via Completed and Partial().
func (r *Runner) Run(ctx context.Context, set *domain.OutcomeSet, cfg domain.SimConfig) (*domain.SimulationBatch, error) {
	if set == nil || set.Len() == 0 {
		return nil, &domain.ValidationError{Field: "outcomes", Reason: "empty outcome set"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := cfg.NumSimulations
	n := cfg.TradesFor(set.Len())

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > k {
		workers = k
	}

	// Slot-indexed result arrays: each worker owns a disjoint contiguous
	// index range, so no two goroutines touch the same slot.
	terminals := make([]float64, k)
	drawdowns := make([]float64, k)
	winRates := make([]float64, k)
	var curves [][]float64
	if r.opts.RetainCurves > 0 {
		retained := min(r.opts.RetainCurves, k)
		curves = make([][]float64, retained)
	}

	// completedTo[w] is the exclusive upper bound of worker w's finished
	// prefix; workers process their range in order, so a cancelled batch
	// still compacts into a run-ordered subset.
	completedTo := make([]int, workers)
	chunk := (k + workers - 1) / workers

	var completed atomic.Int64
	var unstable atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, k)
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}

				res := executeRun(set, n, cfg.Seed, i, i < len(curves))
				terminals[i] = res.summary.TerminalReturn
				drawdowns[i] = res.summary.MaxDrawdown
				winRates[i] = res.summary.WinRate
				if res.curve != nil {
					curves[i] = res.curve
				}
				if res.unstable {
					unstable.Add(1)
				}
				completedTo[w] = i + 1

				if c := completed.Add(1); c%int64(r.opts.ProgressInterval) == 0 {
					r.opts.Progress.RunsCompleted(int(c), k)
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	batch := &domain.SimulationBatch{
		BatchID:      idhash.ComputeBatchID(set, cfg),
		Requested:    k,
		UnstableRuns: int(unstable.Load()),
	}

	if ctx.Err() != nil {
		compactPartial(batch, terminals, drawdowns, winRates, curves, completedTo, chunk)
		return batch, ctx.Err()
	}

	batch.Completed = k
	batch.TerminalReturns = terminals
	batch.MaxDrawdowns = drawdowns
	batch.WinRates = winRates
	batch.Curves = curves
	if k%r.opts.ProgressInterval != 0 {
		r.opts.Progress.RunsCompleted(k, k)
	}
	return batch, nil
}

// compactPartial gathers each worker's finished prefix into contiguous
// slices, preserving run order across workers.
func compactPartial(batch *domain.SimulationBatch, terminals, drawdowns, winRates []float64, curves [][]float64, completedTo []int, chunk int) {
	for w, end := range completedTo {
		start := w * chunk
		for i := start; i < end; i++ {
			batch.TerminalReturns = append(batch.TerminalReturns, terminals[i])
			batch.MaxDrawdowns = append(batch.MaxDrawdowns, drawdowns[i])
			batch.WinRates = append(batch.WinRates, winRates[i])
			if i < len(curves) && curves[i] != nil {
				batch.Curves = append(batch.Curves, curves[i])
			}
		}
	}
	batch.Completed = len(batch.TerminalReturns)
}
