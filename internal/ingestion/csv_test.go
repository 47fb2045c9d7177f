package ingestion

import (
	"errors"
	"strings"
	"testing"
)

func TestReadTrades_WithRMultiples(t *testing.T) {
	data := `trade_id,pair,is_open,close_profit,r_multiple
t1,BTC/USDT,0,0.05,1.8
t2,ETH/USDT,0,-0.02,-1.0
t3,BTC/USDT,1,,
t4,SOL/USDT,0,0.01,
`
	file, err := ReadTrades(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}
	if len(file.Trades) != 4 {
		t.Fatalf("parsed %d trades, want 4", len(file.Trades))
	}
	if !file.HasRMultiple {
		t.Fatal("r_multiple column not detected")
	}

	outcomes, source, err := file.Outcomes()
	if err != nil {
		t.Fatalf("Outcomes failed: %v", err)
	}
	if source != SourceRMultiple {
		t.Errorf("source = %q, want %q", source, SourceRMultiple)
	}
	// t3 is open, t4 has no r_multiple value: both skipped.
	want := []float64{1.8, -1.0}
	if len(outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", outcomes, want)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Errorf("outcome %d = %f, want %f", i, outcomes[i], want[i])
		}
	}
}

func TestReadTrades_CloseProfitFallback(t *testing.T) {
	data := `trade_id,pair,is_open,close_profit
t1,BTC/USDT,0,0.05
t2,ETH/USDT,0,-0.02
`
	file, err := ReadTrades(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}

	outcomes, source, err := file.Outcomes()
	if err != nil {
		t.Fatalf("Outcomes failed: %v", err)
	}
	if source != SourceCloseProfit {
		t.Errorf("source = %q, want %q", source, SourceCloseProfit)
	}
	if len(outcomes) != 2 || outcomes[0] != 0.05 || outcomes[1] != -0.02 {
		t.Errorf("outcomes = %v, want [0.05 -0.02]", outcomes)
	}
}

func TestReadTrades_MissingRequiredColumn(t *testing.T) {
	data := "trade_id,pair,close_profit\nt1,BTC/USDT,0.05\n"
	if _, err := ReadTrades(strings.NewReader(data)); err == nil {
		t.Error("expected error for missing is_open column")
	}
}

func TestReadTrades_MalformedValue(t *testing.T) {
	data := "is_open,close_profit\n0,not-a-number\n"
	if _, err := ReadTrades(strings.NewReader(data)); err == nil {
		t.Error("expected error for malformed close_profit")
	}

	data = "is_open,close_profit\nmaybe,0.5\n"
	if _, err := ReadTrades(strings.NewReader(data)); err == nil {
		t.Error("expected error for malformed is_open")
	}
}

func TestOutcomes_NoClosedTrades(t *testing.T) {
	data := "is_open,close_profit\n1,\n1,\n"
	file, err := ReadTrades(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}

	if _, _, err := file.Outcomes(); !errors.Is(err, ErrNoClosedTrades) {
		t.Errorf("expected ErrNoClosedTrades, got %v", err)
	}
}

func TestOutcomes_NoValues(t *testing.T) {
	// Closed trades exist but every r_multiple cell is blank.
	data := "is_open,close_profit,r_multiple\n0,0.05,\n0,-0.01,\n"
	file, err := ReadTrades(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}

	if _, _, err := file.Outcomes(); !errors.Is(err, ErrNoOutcomes) {
		t.Errorf("expected ErrNoOutcomes, got %v", err)
	}
}

func TestReadTrades_GeneratedTradeIDs(t *testing.T) {
	data := "is_open,close_profit\n0,0.1\n0,0.2\n"
	file, err := ReadTrades(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}
	if file.Trades[0].TradeID == "" || file.Trades[0].TradeID == file.Trades[1].TradeID {
		t.Errorf("generated trade IDs not unique: %q, %q", file.Trades[0].TradeID, file.Trades[1].TradeID)
	}
}
