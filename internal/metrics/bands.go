package metrics

import (
	"fmt"
	"sort"
)

// CurveBand is the per-step percentile of a sample of equity curves: the
// numeric equivalent of the percentile bands drawn over sampled curves in
// a risk chart.
type CurveBand struct {
	Percentile float64
	Curve      []float64
}

// CurveBands computes, for each requested percentile, the per-step
// percentile across the retained equity curves. All curves must have the
// same length (they do for a single batch: N+1 points each).
func CurveBands(curves [][]float64, percentiles []float64) ([]CurveBand, error) {
	if len(curves) == 0 {
		return nil, nil
	}

	steps := len(curves[0])
	for i, c := range curves {
		if len(c) != steps {
			return nil, fmt.Errorf("curve %d has %d points, want %d", i, len(c), steps)
		}
	}

	bands := make([]CurveBand, len(percentiles))
	for bi, p := range percentiles {
		bands[bi] = CurveBand{Percentile: p, Curve: make([]float64, steps)}
	}

	column := make([]float64, len(curves))
	for step := 0; step < steps; step++ {
		for ci, c := range curves {
			column[ci] = c[step]
		}
		sort.Float64s(column)
		for bi, p := range percentiles {
			bands[bi].Curve[step] = percentile(column, p)
		}
	}
	return bands, nil
}
