package execution

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

func walkBook(t *testing.T) *book.Book {
	t.Helper()
	b := book.New(5, zerolog.Nop())
	b.ApplySnapshot(
		[]book.Level{{Price: 100, Size: 100}},
		[]book.Level{{Price: 101, Size: 30}, {Price: 102, Size: 40}, {Price: 103, Size: 50}},
	)
	return b
}

func TestBuyWalksTheBook(t *testing.T) {
	sim := NewSimulator(0.001)
	fill, err := sim.ExecuteMarketOrder(walkBook(t), Buy, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPrice := (30*101.0 + 40*102.0 + 10*103.0) / 80.0 // 101.875
	if math.Abs(fill.Price-wantPrice) > 1e-9 {
		t.Fatalf("fill price = %.4f, want %.4f", fill.Price, wantPrice)
	}
	if fill.Size != 80 {
		t.Fatalf("fill size = %.1f, want 80", fill.Size)
	}
	if math.Abs(fill.Slippage-(wantPrice-101.0)*80) > 1e-9 {
		t.Fatalf("slippage = %.4f, want 70.0", fill.Slippage)
	}
	if math.Abs(fill.Fee-80*wantPrice*0.001) > 1e-9 {
		t.Fatalf("fee = %.6f", fill.Fee)
	}
}

func TestBuyPartialFillOnThinBook(t *testing.T) {
	sim := NewSimulator(0.001)
	fill, err := sim.ExecuteMarketOrder(walkBook(t), Buy, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fill.Size != 120 {
		t.Fatalf("expected partial fill of 120, got %.1f", fill.Size)
	}
}

func TestSellWalkIsSymmetric(t *testing.T) {
	sim := NewSimulator(0.001)
	b := book.New(5, zerolog.Nop())
	b.ApplySnapshot(
		[]book.Level{{Price: 100, Size: 30}, {Price: 99, Size: 40}},
		[]book.Level{{Price: 101, Size: 10}},
	)

	fill, err := sim.ExecuteMarketOrder(b, Sell, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPrice := (30*100.0 + 20*99.0) / 50.0
	if math.Abs(fill.Price-wantPrice) > 1e-9 {
		t.Fatalf("fill price = %.4f, want %.4f", fill.Price, wantPrice)
	}
	if math.Abs(fill.Slippage-(100.0-wantPrice)*50) > 1e-9 {
		t.Fatalf("sell slippage = %.4f", fill.Slippage)
	}
}

func TestZeroAndNegativeQuantityDegenerate(t *testing.T) {
	sim := NewSimulator(0.001)
	for _, qty := range []float64{0, -5} {
		fill, err := sim.ExecuteMarketOrder(walkBook(t), Buy, qty)
		if err != nil {
			t.Fatalf("non-positive qty must not error: %v", err)
		}
		if fill.Size != 0 || fill.Price != 0 || fill.Fee != 0 || fill.Slippage != 0 {
			t.Fatalf("expected zero fill for qty %.1f, got %+v", qty, fill)
		}
	}
}

func TestEmptySideYieldsZeroFill(t *testing.T) {
	sim := NewSimulator(0.001)
	b := book.New(5, zerolog.Nop())
	b.ApplySnapshot([]book.Level{{Price: 100, Size: 10}}, nil)

	fill, err := sim.ExecuteMarketOrder(b, Buy, 10)
	if err != nil {
		t.Fatalf("empty side must not error: %v", err)
	}
	if fill.Size != 0 {
		t.Fatalf("expected zero fill, got %+v", fill)
	}
}

func TestInvalidSideFailsFast(t *testing.T) {
	sim := NewSimulator(0.001)
	if _, err := sim.ExecuteMarketOrder(walkBook(t), Side("hold"), 10); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
	if _, _, err := sim.BestExecutionPrice(walkBook(t), Side("hold")); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
}

func TestBestExecutionPrice(t *testing.T) {
	sim := NewSimulator(0.001)
	b := walkBook(t)

	px, ok, err := sim.BestExecutionPrice(b, Buy)
	if err != nil || !ok || px != 101 {
		t.Fatalf("best buy price = %.2f (%v, %v), want 101", px, ok, err)
	}
	px, ok, err = sim.BestExecutionPrice(b, Sell)
	if err != nil || !ok || px != 100 {
		t.Fatalf("best sell price = %.2f (%v, %v), want 100", px, ok, err)
	}

	empty := book.New(5, zerolog.Nop())
	if _, ok, _ := sim.BestExecutionPrice(empty, Buy); ok {
		t.Fatalf("empty book should have no execution price")
	}
}
