package domain

import "fmt"

// ValidationError reports configuration or input that fails the engine's
// structural checks (empty outcome set, non-positive counts, VaR level
// outside (0,1), and so on). It is detected before any simulation starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// DataError reports a non-finite value inside the historical outcomes.
// Non-finite values are rejected at ingestion rather than filtered, since
// silent filtering would change the sample size and bias the resample.
type DataError struct {
	Index int
	Value float64
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data: outcome[%d] is non-finite (%v)", e.Index, e.Value)
}
