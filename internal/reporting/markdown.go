package reporting

import (
	"fmt"
	"strings"
	"time"

	"trade-risk-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Monte Carlo Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Batch: `%s` (%s)\n\n", r.ShortID, r.BatchID))

	if r.Partial {
		sb.WriteString(fmt.Sprintf("**Partial batch:** %d of %d requested runs completed.\n\n",
			r.Completed, r.Requested))
	}
	if r.UnstableRuns > 0 {
		sb.WriteString(fmt.Sprintf("**Warning:** %d runs flagged as numerically unstable.\n\n",
			r.UnstableRuns))
	}

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Historical Outcomes | %d |\n", r.OutcomeCount))
	sb.WriteString(fmt.Sprintf("| Trades per Simulation | %d |\n", r.TradesPerSim))
	sb.WriteString(fmt.Sprintf("| Simulations Requested | %d |\n", r.Requested))
	sb.WriteString(fmt.Sprintf("| Simulations Completed | %d |\n", r.Completed))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.Seed))
	sb.WriteString("\n")

	// Metric summaries
	sb.WriteString("## Distribution Summaries\n\n")
	sb.WriteString("| Metric | Mean | Stddev | P5 | P25 | P50 | P75 | P95 |\n")
	sb.WriteString("|--------|------|--------|----|-----|-----|-----|-----|\n")
	writeMetricRow(&sb, "Terminal Return", r.Statistics.TerminalReturn)
	writeMetricRow(&sb, "Max Drawdown", r.Statistics.MaxDrawdown)
	writeMetricRow(&sb, "Win Rate", r.Statistics.WinRate)
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Probability of positive terminal return: **%.1f%%**\n\n",
		r.Statistics.ProbPositiveReturn*100))

	// Drawdown breach probabilities
	sb.WriteString("## Drawdown Breach Probabilities\n\n")
	if len(r.Statistics.DrawdownBreaches) > 0 {
		sb.WriteString("| Threshold | Probability |\n")
		sb.WriteString("|-----------|-------------|\n")
		for _, b := range r.Statistics.DrawdownBreaches {
			sb.WriteString(fmt.Sprintf("| %.4f | %.2f%% |\n", b.Threshold, b.Probability*100))
		}
	} else {
		sb.WriteString("No drawdown thresholds configured.\n")
	}
	sb.WriteString("\n")

	// Tail risk
	sb.WriteString("## Tail Risk\n\n")
	if len(r.Statistics.TailRisks) > 0 {
		sb.WriteString("| Level | VaR | CVaR |\n")
		sb.WriteString("|-------|-----|------|\n")
		for _, t := range r.Statistics.TailRisks {
			sb.WriteString(fmt.Sprintf("| %.0f%% | %.4f | %.4f |\n", t.Level*100, t.VaR, t.CVaR))
		}
	} else {
		sb.WriteString("No tail levels configured.\n")
	}
	sb.WriteString("\n")

	// Equity curve bands
	if len(r.CurveBands) > 0 {
		sb.WriteString("## Equity Curve Bands\n\n")
		sb.WriteString("Per-step percentiles across retained equity curves (start, quartile points, end):\n\n")
		sb.WriteString("| Percentile | Start | 25% | 50% | 75% | End |\n")
		sb.WriteString("|------------|-------|-----|-----|-----|-----|\n")
		for _, band := range r.CurveBands {
			n := len(band.Curve)
			if n == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("| P%.0f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				band.Percentile*100,
				band.Curve[0], band.Curve[n/4], band.Curve[n/2], band.Curve[3*n/4], band.Curve[n-1]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeMetricRow(sb *strings.Builder, name string, m domain.MetricSummary) {
	sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
		name, m.Mean, m.Stddev, m.P5, m.P25, m.P50, m.P75, m.P95))
}
