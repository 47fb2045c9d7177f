// Package domain holds the core value types of the risk lab:
// historical trade outcomes, simulation configuration, per-run summaries,
// finished batches and the derived risk statistics.
package domain

import "math"

// OutcomeSet is a validated, immutable ordered sequence of historical
// per-trade outcomes (R-multiples or percentage returns in a consistent
// unit). It is the only input the simulation engine reads.
//
// Outcomes are treated as exchangeable draws: serial correlation and
// regime-dependence among real trades are deliberately ignored, matching
// the plain-bootstrap assumption of the analysis this engine implements.
type OutcomeSet struct {
	values []float64
}

// NewOutcomeSet validates and copies outcomes.
// Returns ValidationError for an empty input and DataError for the first
// NaN or Infinity encountered.
func NewOutcomeSet(outcomes []float64) (*OutcomeSet, error) {
	if len(outcomes) == 0 {
		return nil, &ValidationError{Field: "outcomes", Reason: "empty outcome set"}
	}
	for i, v := range outcomes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &DataError{Index: i, Value: v}
		}
	}

	values := make([]float64, len(outcomes))
	copy(values, outcomes)
	return &OutcomeSet{values: values}, nil
}

// Len returns the number of historical outcomes.
func (s *OutcomeSet) Len() int {
	return len(s.values)
}

// At returns the outcome at index i.
func (s *OutcomeSet) At(i int) float64 {
	return s.values[i]
}

// Values returns a copy of the outcomes, preserving order.
func (s *OutcomeSet) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}
