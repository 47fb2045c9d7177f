// Package ingestion loads historical trades from bot exports. The CSV
// reader understands the trades_export.csv layout: one row per trade,
// with open trades filtered out and R-multiples preferred over raw
// profit percentages when the export includes them.
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"trade-risk-lab/internal/domain"
)

// Outcome source labels, reported alongside loaded outcomes.
const (
	SourceRMultiple   = "r_multiple"
	SourceCloseProfit = "close_profit"
)

// Ingestion errors.
var (
	ErrNoClosedTrades = errors.New("no closed trades found")
	ErrNoOutcomes     = errors.New("no valid outcome values found")
)

// TradesFile is a parsed trade export.
type TradesFile struct {
	Trades []*domain.Trade

	// HasRMultiple records whether the export carried an r_multiple
	// column; when it did, outcomes come from it exclusively.
	HasRMultiple bool
}

// ReadTrades parses a trades CSV export. Recognized columns: trade_id,
// pair, is_open, open_timestamp, close_timestamp, close_profit,
// r_multiple. is_open and close_profit are required; rows missing an
// r_multiple value keep a nil RMultiple.
func ReadTrades(r io.Reader) (*TradesFile, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["is_open"]; !ok {
		return nil, fmt.Errorf("trades export missing required column %q", "is_open")
	}
	if _, ok := col["close_profit"]; !ok {
		return nil, fmt.Errorf("trades export missing required column %q", "close_profit")
	}
	_, hasRMultiple := col["r_multiple"]

	file := &TradesFile{HasRMultiple: hasRMultiple}
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		trade, err := parseTrade(record, col, row)
		if err != nil {
			return nil, err
		}
		file.Trades = append(file.Trades, trade)
	}
	return file, nil
}

// Outcomes extracts the outcome sequence from the closed trades,
// preserving file order, and reports which column supplied it.
// Blank cells are absent values and are skipped, matching the export's
// semantics; non-finite values are passed through so that OutcomeSet
// construction rejects them explicitly instead of dropping them here.
func (f *TradesFile) Outcomes() ([]float64, string, error) {
	closed := 0
	var outcomes []float64
	source := SourceCloseProfit
	if f.HasRMultiple {
		source = SourceRMultiple
	}

	for _, t := range f.Trades {
		if t.IsOpen {
			continue
		}
		closed++

		if f.HasRMultiple {
			if t.RMultiple != nil {
				outcomes = append(outcomes, *t.RMultiple)
			}
			continue
		}
		outcomes = append(outcomes, t.CloseProfit)
	}

	if closed == 0 {
		return nil, "", ErrNoClosedTrades
	}
	if len(outcomes) == 0 {
		return nil, "", ErrNoOutcomes
	}
	return outcomes, source, nil
}

func parseTrade(record []string, col map[string]int, row int) (*domain.Trade, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	isOpen, err := parseBool(field("is_open"))
	if err != nil {
		return nil, fmt.Errorf("row %d: parse is_open: %w", row, err)
	}

	trade := &domain.Trade{
		TradeID: field("trade_id"),
		Pair:    field("pair"),
		IsOpen:  isOpen,
	}
	if trade.TradeID == "" {
		trade.TradeID = fmt.Sprintf("row-%d", row)
	}

	if v := field("open_timestamp"); v != "" {
		if trade.OpenedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("row %d: parse open_timestamp: %w", row, err)
		}
	}
	if v := field("close_timestamp"); v != "" {
		if trade.ClosedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("row %d: parse close_timestamp: %w", row, err)
		}
	}

	if v := field("close_profit"); v != "" {
		if trade.CloseProfit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("row %d: parse close_profit: %w", row, err)
		}
	}
	if v := field("r_multiple"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse r_multiple: %w", row, err)
		}
		trade.RMultiple = &r
	}
	return trade, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "0", "false", "":
		return false, nil
	case "1", "true":
		return true, nil
	}
	return false, fmt.Errorf("unrecognized boolean %q", s)
}
