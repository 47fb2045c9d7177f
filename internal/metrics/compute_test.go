package metrics

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 3},
		{"mixed", []float64{1, -1, 2, -1, 3}, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mean(tt.values); got != tt.want {
				t.Errorf("mean = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSampleStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	m := mean(values)

	// Sample variance of this classic set is 32/7.
	want := math.Sqrt(32.0 / 7.0)
	if got := sampleStddev(values, m); math.Abs(got-want) > 1e-12 {
		t.Errorf("sampleStddev = %f, want %f", got, want)
	}

	if got := sampleStddev([]float64{1}, 1); got != 0 {
		t.Errorf("stddev of single value = %f, want 0", got)
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{0.5, 25}, // idx 1.5: halfway between 20 and 30
		{1, 40},
		{0.25, 17.5}, // idx 0.75
		{0.75, 32.5}, // idx 2.25
	}

	for _, tt := range tests {
		if got := percentile(sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("percentile(%.2f) = %f, want %f", tt.p, got, tt.want)
		}
	}
}

func TestPercentile_Degenerate(t *testing.T) {
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile of empty = %f, want 0", got)
	}
	if got := percentile([]float64{7}, 0.95); got != 7 {
		t.Errorf("percentile of single value = %f, want 7", got)
	}
}

func TestSummarize_PercentileLadderMonotone(t *testing.T) {
	values := []float64{5, -3, 8, 0, -1, 2, 12, -7, 4, 4}

	s := summarize(values)
	ladder := []float64{s.P5, s.P25, s.P50, s.P75, s.P95}
	for i := 1; i < len(ladder); i++ {
		if ladder[i] < ladder[i-1] {
			t.Fatalf("percentile ladder not monotone: %v", ladder)
		}
	}

	if s.Mean != mean(values) {
		t.Errorf("summary mean = %f, want %f", s.Mean, mean(values))
	}
}
