package domain

// Trade is one historical trade as exported by the trading bot. Only
// closed trades contribute outcomes; RMultiple is preferred over
// CloseProfit when present.
type Trade struct {
	TradeID     string
	Pair        string
	IsOpen      bool
	OpenedAt    int64 // unix ms
	ClosedAt    int64 // unix ms, zero while open
	CloseProfit float64
	RMultiple   *float64 // nullable: exports without a risk unit omit it
}

// Outcome returns the trade's contribution to the outcome set and whether
// it has one (open trades do not).
func (t *Trade) Outcome() (float64, bool) {
	if t.IsOpen {
		return 0, false
	}
	if t.RMultiple != nil {
		return *t.RMultiple, true
	}
	return t.CloseProfit, true
}

// Outcome sources reported alongside extracted values.
const (
	OutcomeSourceRMultiple   = "r_multiple"
	OutcomeSourceCloseProfit = "close_profit"
)

// OutcomesFromTrades extracts outcome values from trades, preferring
// R-multiples when any closed trade carries one. Open trades contribute
// nothing in either mode, so callers may pass unfiltered slices. Closed
// trades missing an R-multiple are skipped in R-multiple mode, mirroring
// how exports with a partially filled r_multiple column are read.
func OutcomesFromTrades(trades []*Trade) ([]float64, string) {
	var rMultiples []float64
	for _, t := range trades {
		if !t.IsOpen && t.RMultiple != nil {
			rMultiples = append(rMultiples, *t.RMultiple)
		}
	}
	if len(rMultiples) > 0 {
		return rMultiples, OutcomeSourceRMultiple
	}

	values := make([]float64, 0, len(trades))
	for _, t := range trades {
		if v, ok := t.Outcome(); ok {
			values = append(values, v)
		}
	}
	return values, OutcomeSourceCloseProfit
}
