package account

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
)

var ts = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func TestBuySellRoundTrip(t *testing.T) {
	a := New(100000)

	if err := a.RecordFill(ts, execution.Buy, 100.0, 10, 1.0); err != nil {
		t.Fatalf("unexpected buy error: %v", err)
	}
	if a.Position() != 10 {
		t.Fatalf("position = %.1f, want 10", a.Position())
	}
	if a.AvgEntryPrice() != 100.0 {
		t.Fatalf("avg entry = %.2f, want 100", a.AvgEntryPrice())
	}
	if a.Cash() != 100000-1001 {
		t.Fatalf("cash = %.2f, want 98999", a.Cash())
	}

	if err := a.RecordFill(ts, execution.Sell, 110.0, 10, 1.1); err != nil {
		t.Fatalf("unexpected sell error: %v", err)
	}
	if a.Position() != 0 {
		t.Fatalf("position should be flat, got %.1f", a.Position())
	}
	if math.Abs(a.RealizedPnL()-100.0) > 1e-9 {
		t.Fatalf("realized = %.4f, want 100", a.RealizedPnL())
	}
}

func TestAveragePriceOnExtendingLong(t *testing.T) {
	a := New(100000)
	_ = a.RecordFill(ts, execution.Buy, 100, 10, 0)
	_ = a.RecordFill(ts, execution.Buy, 110, 10, 0)

	if math.Abs(a.AvgEntryPrice()-105) > 1e-9 {
		t.Fatalf("avg entry = %.2f, want 105", a.AvgEntryPrice())
	}
	if a.Position() != 20 {
		t.Fatalf("position = %.1f, want 20", a.Position())
	}
}

func TestShortOpenAndClose(t *testing.T) {
	a := New(100000)
	_ = a.RecordFill(ts, execution.Sell, 100, 10, 0.5)
	if a.Position() != -10 || a.AvgEntryPrice() != 100 {
		t.Fatalf("short open wrong: pos=%.1f avg=%.2f", a.Position(), a.AvgEntryPrice())
	}
	if a.Cash() != 100000+1000-0.5 {
		t.Fatalf("cash = %.2f", a.Cash())
	}

	_ = a.RecordFill(ts, execution.Buy, 90, 10, 0.5)
	if a.Position() != 0 {
		t.Fatalf("short should be closed, pos=%.1f", a.Position())
	}
	if math.Abs(a.RealizedPnL()-100) > 1e-9 {
		t.Fatalf("realized = %.4f, want 100", a.RealizedPnL())
	}
}

func TestExtendingShortWeightsAveragePrice(t *testing.T) {
	a := New(100000)
	_ = a.RecordFill(ts, execution.Sell, 100, 10, 0)
	_ = a.RecordFill(ts, execution.Sell, 90, 10, 0)

	if a.Position() != -20 {
		t.Fatalf("position = %.1f, want -20", a.Position())
	}
	if math.Abs(a.AvgEntryPrice()-95) > 1e-9 {
		t.Fatalf("avg entry = %.2f, want 95", a.AvgEntryPrice())
	}
}

func TestReversalDiscardsAveragePrice(t *testing.T) {
	a := New(100000)
	_ = a.RecordFill(ts, execution.Buy, 100, 10, 0)
	// Sell 25: close 10 long at 110 (+100 realized), open short 15 at 110.
	_ = a.RecordFill(ts, execution.Sell, 110, 25, 0)

	if a.Position() != -15 {
		t.Fatalf("position = %.1f, want -15", a.Position())
	}
	if a.AvgEntryPrice() != 110 {
		t.Fatalf("avg entry should be replaced at reversal, got %.2f", a.AvgEntryPrice())
	}
	if math.Abs(a.RealizedPnL()-100) > 1e-9 {
		t.Fatalf("realized = %.4f, want 100", a.RealizedPnL())
	}
}

func TestUnrealizedPnL(t *testing.T) {
	a := New(100000)
	if a.UnrealizedPnL(500) != 0 {
		t.Fatalf("flat position should have zero unrealized")
	}

	_ = a.RecordFill(ts, execution.Buy, 100, 10, 0)
	if math.Abs(a.UnrealizedPnL(105)-50) > 1e-9 {
		t.Fatalf("long unrealized = %.2f, want 50", a.UnrealizedPnL(105))
	}

	b := New(100000)
	_ = b.RecordFill(ts, execution.Sell, 100, 10, 0)
	if math.Abs(b.UnrealizedPnL(95)-50) > 1e-9 {
		t.Fatalf("short unrealized = %.2f, want 50", b.UnrealizedPnL(95))
	}
}

func TestGetMetrics(t *testing.T) {
	a := New(100000)
	_ = a.RecordFill(ts, execution.Buy, 100, 10, 1)

	mid := 105.0
	m := a.GetMetrics(&mid)
	if math.Abs(m.UnrealizedPnL-50) > 1e-9 {
		t.Fatalf("unrealized = %.2f, want 50", m.UnrealizedPnL)
	}
	if math.Abs(m.TotalPnL-50) > 1e-9 {
		t.Fatalf("total pnl = %.2f, want 50", m.TotalPnL)
	}
	if math.Abs(m.TotalValue-(a.Cash()+10*105)) > 1e-9 {
		t.Fatalf("total value = %.2f", m.TotalValue)
	}

	// No quote: unrealized undefined, totals fall back.
	m = a.GetMetrics(nil)
	if m.UnrealizedPnL != 0 || m.TotalPnL != a.RealizedPnL() || m.TotalValue != a.Cash() {
		t.Fatalf("metrics without quote wrong: %+v", m)
	}
}

func TestTradeHistoryAppendsEveryFill(t *testing.T) {
	a := New(100000)
	_ = a.RecordFill(ts, execution.Buy, 100, 10, 1)
	_ = a.RecordFill(ts.Add(time.Second), execution.Sell, 101, 4, 0.4)

	hist := a.TradeHistory()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].PositionAfter != 10 || hist[1].PositionAfter != 6 {
		t.Fatalf("resulting positions wrong: %+v", hist)
	}
	if hist[1].CashAfter != a.Cash() {
		t.Fatalf("cash after mismatch")
	}
}

func TestRecordFillInvalidSide(t *testing.T) {
	a := New(100000)
	err := a.RecordFill(ts, execution.Side("hold"), 100, 1, 0)
	if !errors.Is(err, execution.ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
	if len(a.TradeHistory()) != 0 {
		t.Fatalf("invalid fill must not be recorded")
	}
}

func TestReset(t *testing.T) {
	a := New(50000)
	_ = a.RecordFill(ts, execution.Buy, 100, 5, 1)
	a.Reset()

	if a.Cash() != 50000 || a.Position() != 0 || a.RealizedPnL() != 0 || len(a.TradeHistory()) != 0 {
		t.Fatalf("reset incomplete: cash=%.2f pos=%.1f", a.Cash(), a.Position())
	}
}
