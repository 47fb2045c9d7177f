// Package metrics reduces finished simulation batches into risk
// statistics: percentile ladders, threshold-breach probabilities,
// Value-at-Risk and Conditional VaR.
package metrics

import (
	"math"
	"sort"

	"trade-risk-lab/internal/domain"
)

// mean calculates the arithmetic mean of values.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStddev calculates sample standard deviation (n-1 denominator).
func sampleStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// percentile uses linear interpolation between order statistics.
// sorted must be pre-sorted ASC. p is a fraction (0.05 = 5th percentile).
// The same rule applies to every metric, which guarantees the percentile
// ladder is monotone for any batch.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// summarize computes the distribution summary of one per-run metric.
func summarize(values []float64) domain.MetricSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	m := mean(values)
	return domain.MetricSummary{
		Mean:   m,
		Stddev: sampleStddev(values, m),
		P5:     percentile(sorted, 0.05),
		P25:    percentile(sorted, 0.25),
		P50:    percentile(sorted, 0.50),
		P75:    percentile(sorted, 0.75),
		P95:    percentile(sorted, 0.95),
	}
}
