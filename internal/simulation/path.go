package simulation

import "math"

// magnitudeGuard is the cumulative-sum magnitude beyond which a run is
// flagged as numerically unstable. Well below the float64 integer-exact
// range, so accumulated rounding stays negligible for any sane input.
const magnitudeGuard = 1e15

// BuildEquityCurve converts sampled outcomes into a cumulative equity
// curve of length len(sampled)+1 starting at zero:
//
//	curve[0] = 0
//	curve[i] = curve[i-1] + sampled[i-1]
func BuildEquityCurve(sampled []float64) []float64 {
	curve := make([]float64, len(sampled)+1)
	for i, v := range sampled {
		curve[i+1] = curve[i] + v
	}
	return curve
}

// MaxDrawdown computes the most negative distance below the running peak
// of an equity curve. A non-decreasing curve yields 0.
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0]
	maxDD := 0.0
	for _, v := range curve[1:] {
		if v > peak {
			peak = v
		}
		if dd := v - peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// RunningMax returns running_max[i] = max(curve[0..i]); non-decreasing by
// construction. Only needed when the full drawdown series is wanted, e.g.
// for curve visualization; the batch runner uses the streaming form.
func RunningMax(curve []float64) []float64 {
	out := make([]float64, len(curve))
	peak := math.Inf(-1)
	for i, v := range curve {
		if v > peak {
			peak = v
		}
		out[i] = peak
	}
	return out
}

// pathStats is the streaming single-pass equivalent of
// BuildEquityCurve + MaxDrawdown: it folds the cumulative sum, running
// peak, minimum-below-peak and win count without materializing the curve.
func pathStats(sampled []float64) (terminal, maxDD, winRate float64, unstable bool) {
	cum := 0.0
	peak := 0.0
	wins := 0
	for _, v := range sampled {
		cum += v
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < maxDD {
			maxDD = dd
		}
		if v > 0 {
			wins++
		}
		if math.Abs(cum) > magnitudeGuard {
			unstable = true
		}
	}
	if n := len(sampled); n > 0 {
		winRate = float64(wins) / float64(n)
	}
	return cum, maxDD, winRate, unstable
}
