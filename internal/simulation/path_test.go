package simulation

import (
	"math"
	"testing"
)

func TestBuildEquityCurve(t *testing.T) {
	curve := BuildEquityCurve([]float64{1, -1, 2, -1, 3})

	want := []float64{0, 1, 0, 2, 1, 4}
	if len(curve) != len(want) {
		t.Fatalf("curve length = %d, want %d", len(curve), len(want))
	}
	for i := range want {
		if curve[i] != want[i] {
			t.Errorf("curve[%d] = %f, want %f", i, curve[i], want[i])
		}
	}
}

func TestBuildEquityCurve_StartsAtZero(t *testing.T) {
	curve := BuildEquityCurve([]float64{-3.5})
	if curve[0] != 0 {
		t.Errorf("curve[0] = %f, want 0", curve[0])
	}
	if len(curve) != 2 {
		t.Errorf("curve length = %d, want 2", len(curve))
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name    string
		sampled []float64
		want    float64
	}{
		{"mixed path", []float64{1, -1, 2, -1, 3}, -1},
		{"strictly increasing", []float64{2, 2, 2}, 0},
		{"straight decline", []float64{-1, -1, -1}, -3},
		{"deep mid-path trough", []float64{3, -5, 1, 4}, -5},
		{"peak above start", []float64{-1, 2, -3, 1, -2}, -4},
		{"single loss", []float64{-0.5}, -0.5},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(BuildEquityCurve(tt.sampled))
			if got != tt.want {
				t.Errorf("MaxDrawdown = %f, want %f", got, tt.want)
			}
			if got > 0 {
				t.Errorf("MaxDrawdown = %f, must be <= 0", got)
			}
		})
	}
}

func TestRunningMax_NonDecreasing(t *testing.T) {
	curve := BuildEquityCurve([]float64{1, -2, 0.5, 3, -1, -1, 4})
	running := RunningMax(curve)

	if len(running) != len(curve) {
		t.Fatalf("running max length = %d, want %d", len(running), len(curve))
	}
	for i := 1; i < len(running); i++ {
		if running[i] < running[i-1] {
			t.Errorf("running_max decreased at %d: %f -> %f", i, running[i-1], running[i])
		}
	}
	for i := range curve {
		if running[i] < curve[i] {
			t.Errorf("running_max[%d] = %f below curve value %f", i, running[i], curve[i])
		}
	}
}

func TestPathStats_MatchesMaterializedForm(t *testing.T) {
	sampled := []float64{1.5, -0.75, 0.25, -2, 3, -1, -1, 0.5, 2, -0.25}

	terminal, maxDD, winRate, unstable := pathStats(sampled)

	curve := BuildEquityCurve(sampled)
	if terminal != curve[len(curve)-1] {
		t.Errorf("terminal = %f, curve end = %f", terminal, curve[len(curve)-1])
	}
	if want := MaxDrawdown(curve); maxDD != want {
		t.Errorf("max drawdown = %f, want %f", maxDD, want)
	}
	if want := 5.0 / 10.0; winRate != want {
		t.Errorf("win rate = %f, want %f", winRate, want)
	}
	if unstable {
		t.Error("small path flagged unstable")
	}
}

func TestPathStats_FlagsMagnitudeGuard(t *testing.T) {
	_, _, _, unstable := pathStats([]float64{magnitudeGuard, magnitudeGuard})
	if !unstable {
		t.Error("cumulative sum beyond guard not flagged unstable")
	}
}

func TestPathStats_WinRateExcludesZeroOutcomes(t *testing.T) {
	_, _, winRate, _ := pathStats([]float64{0, 0, 1, -1})
	if winRate != 0.25 {
		t.Errorf("win rate = %f, want 0.25 (zero outcomes are not wins)", winRate)
	}
}

func TestMaxDrawdown_CanExceedCurveMinimum(t *testing.T) {
	// The running peak climbs to 1 before the final decline to -3, so the
	// drawdown reaches -3 - 1 = -4, deeper than the curve's own minimum.
	curve := BuildEquityCurve([]float64{-1, 2, -3, 1, -2})
	if dd := MaxDrawdown(curve); dd != -4 {
		t.Errorf("MaxDrawdown = %f, want -4", dd)
	}
}

func TestMaxDrawdown_BoundedByCurveRange(t *testing.T) {
	// The drawdown measures distance below the running peak, so its floor
	// is min(curve) - max(curve), not min(curve).
	paths := [][]float64{
		{-1, 2, -3, 1, -2},
		{1, -1, 2, -1, 3},
		{3, -5, 1, 4},
		{-1, -1, -1},
		{0.5, -0.5, 0.5, -0.5},
	}
	for _, sampled := range paths {
		curve := BuildEquityCurve(sampled)
		low, high := math.Inf(1), math.Inf(-1)
		for _, v := range curve {
			low = math.Min(low, v)
			high = math.Max(high, v)
		}
		if dd := MaxDrawdown(curve); dd < low-high {
			t.Errorf("MaxDrawdown(%v) = %f below range bound %f", sampled, dd, low-high)
		}
	}
}
