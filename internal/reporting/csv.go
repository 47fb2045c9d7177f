package reporting

import (
	"fmt"
	"strings"

	"trade-risk-lab/internal/domain"
)

// RenderCSV renders per-run summaries as CSV string, in run order.
func RenderCSV(summaries []domain.RunSummary) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_index,terminal_return,max_drawdown,win_rate\n")

	// Rows
	for i, r := range summaries {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f,%.6f\n",
			i,
			r.TerminalReturn,
			r.MaxDrawdown,
			r.WinRate,
		))
	}

	return sb.String()
}
