// Package verification checks that stored batch results match a
// deterministic re-execution with the same seed and configuration.
// Re-execution is expected to be bit-identical; any divergence means
// the stored data or the underlying trades changed since the batch ran.
package verification

import (
	"math"

	"trade-risk-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Replayed runs
// are bit-identical by construction, so this only absorbs values that
// round-tripped through external storage formats.
const FloatTolerance = 1e-12

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// RunDivergence collects the divergent fields of one run.
type RunDivergence struct {
	RunIndex    int
	Divergences []FieldDivergence
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	BatchID       string
	TotalRuns     int             // runs compared
	MatchedRuns   int             // runs that matched within tolerance
	DivergentRuns int             // runs with divergences
	ConfigMatch   bool            // false when the outcome set no longer matches the record
	Divergences   []RunDivergence // individual divergent runs
}

// Match reports whether the stored batch is consistent with re-execution.
func (r *VerificationReport) Match() bool {
	return r.ConfigMatch && r.DivergentRuns == 0
}

// CompareRunSummaries compares a stored and a replayed run summary.
func CompareRunSummaries(stored, replayed domain.RunSummary) []FieldDivergence {
	var divergences []FieldDivergence

	if !floatEquals(stored.TerminalReturn, replayed.TerminalReturn) {
		divergences = append(divergences, FieldDivergence{
			Field:    "TerminalReturn",
			Expected: stored.TerminalReturn,
			Actual:   replayed.TerminalReturn,
		})
	}
	if !floatEquals(stored.MaxDrawdown, replayed.MaxDrawdown) {
		divergences = append(divergences, FieldDivergence{
			Field:    "MaxDrawdown",
			Expected: stored.MaxDrawdown,
			Actual:   replayed.MaxDrawdown,
		})
	}
	if !floatEquals(stored.WinRate, replayed.WinRate) {
		divergences = append(divergences, FieldDivergence{
			Field:    "WinRate",
			Expected: stored.WinRate,
			Actual:   replayed.WinRate,
		})
	}

	return divergences
}

// floatEquals compares floats within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
