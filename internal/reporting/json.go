package reporting

import (
	"encoding/json"
	"fmt"
	"strconv"

	"trade-risk-lab/internal/domain"
)

// RenderResultsJSON renders statistics as an indented JSON object with
// flat metric keys, one number per key. Probabilities are expressed in
// percent; threshold and tail keys carry their parameter in the name
// (prob_drawdown_gt_5R, var_1_percent).
func RenderResultsJSON(s *domain.RiskStatistics) ([]byte, error) {
	results := map[string]float64{
		"final_return_mean":            s.TerminalReturn.Mean,
		"final_return_median":          s.TerminalReturn.P50,
		"final_return_std":             s.TerminalReturn.Stddev,
		"final_return_5th_percentile":  s.TerminalReturn.P5,
		"final_return_95th_percentile": s.TerminalReturn.P95,

		"prob_positive_return": s.ProbPositiveReturn * 100,

		"max_drawdown_mean":            s.MaxDrawdown.Mean,
		"max_drawdown_median":          s.MaxDrawdown.P50,
		"max_drawdown_std":             s.MaxDrawdown.Stddev,
		"max_drawdown_5th_percentile":  s.MaxDrawdown.P5,
		"max_drawdown_95th_percentile": s.MaxDrawdown.P95,

		"win_rate_mean":   s.WinRate.Mean,
		"win_rate_median": s.WinRate.P50,

		"simulations_requested": float64(s.Requested),
		"simulations_completed": float64(s.Completed),
		"unstable_runs":         float64(s.UnstableRuns),
	}

	for _, b := range s.DrawdownBreaches {
		key := fmt.Sprintf("prob_drawdown_gt_%sR", formatNum(-b.Threshold))
		results[key] = b.Probability * 100
	}

	for _, t := range s.TailRisks {
		pct := formatNum(t.Level * 100)
		results[fmt.Sprintf("var_%s_percent", pct)] = t.VaR
		results[fmt.Sprintf("expected_shortfall_%s_percent", pct)] = t.CVaR
	}

	return json.MarshalIndent(results, "", "  ")
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
