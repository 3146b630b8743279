package signal

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

func twoSidedBook(t *testing.T, bidPx, bidSz, askPx, askSz float64) *book.Book {
	t.Helper()
	b := book.New(5, zerolog.Nop())
	b.ApplySnapshot([]book.Level{{Price: bidPx, Size: bidSz}}, []book.Level{{Price: askPx, Size: askSz}})
	return b
}

func TestUpdateEmptyBookAllAbsent(t *testing.T) {
	e := NewEngine(10, 5)
	b := book.New(5, zerolog.Nop())

	snap := e.Update(b)
	if snap.MidPrice != nil || snap.Spread != nil || snap.MidPriceReturn != nil ||
		snap.DepthImbalance != nil || snap.ImbalanceZScore != nil || snap.ReturnZScore != nil {
		t.Fatalf("expected fully absent snapshot, got %+v", snap)
	}
	if e.midPrices.len() != 0 {
		t.Fatalf("windows must not advance without a mid price")
	}
}

func TestFirstObservationReturnIsZero(t *testing.T) {
	e := NewEngine(10, 5)
	snap := e.Update(twoSidedBook(t, 100, 1, 102, 1))

	if snap.MidPrice == nil || *snap.MidPrice != 101 {
		t.Fatalf("mid price wrong: %+v", snap.MidPrice)
	}
	if snap.MidPriceReturn == nil || *snap.MidPriceReturn != 0 {
		t.Fatalf("first return should be 0.0, got %+v", snap.MidPriceReturn)
	}
	if e.returns.len() != 0 {
		t.Fatalf("first observation must not enter the returns window")
	}
}

func TestLogReturnAgainstPreviousMid(t *testing.T) {
	e := NewEngine(10, 5)
	e.Update(twoSidedBook(t, 99, 1, 101, 1))  // mid 100
	snap := e.Update(twoSidedBook(t, 101, 1, 103, 1)) // mid 102

	want := math.Log(102.0 / 100.0)
	if snap.MidPriceReturn == nil || math.Abs(*snap.MidPriceReturn-want) > 1e-12 {
		t.Fatalf("log return = %+v, want %.8f", snap.MidPriceReturn, want)
	}
}

func TestDepthImbalance(t *testing.T) {
	e := NewEngine(10, 5)
	b := book.New(5, zerolog.Nop())
	b.ApplySnapshot(
		[]book.Level{{Price: 100, Size: 12}, {Price: 99, Size: 8}},
		[]book.Level{{Price: 101, Size: 4}, {Price: 102, Size: 6}},
	)

	snap := e.Update(b)
	if snap.DepthImbalance == nil {
		t.Fatalf("imbalance should be present")
	}
	if math.Abs(*snap.DepthImbalance-(20.0-10.0)/30.0) > 1e-9 {
		t.Fatalf("imbalance = %.4f, want ~0.333", *snap.DepthImbalance)
	}
}

func TestImbalanceAbsentOnOneSidedScope(t *testing.T) {
	e := NewEngine(10, 5)
	b := book.New(5, zerolog.Nop())
	// Bid side only: no mid price either, so nothing is computed.
	b.ApplySnapshot([]book.Level{{Price: 100, Size: 5}}, nil)
	snap := e.Update(b)
	if snap.DepthImbalance != nil {
		t.Fatalf("imbalance should be absent for one-sided book")
	}
}

func TestZScoreProperties(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5}
	if z := zScore(3.0, samples); math.Abs(z) > 1e-9 {
		t.Fatalf("z-score of the mean should be ~0, got %.4f", z)
	}
	std := math.Sqrt(2.0) // population std of 1..5
	if z := zScore(3.0+std, samples); math.Abs(z-1.0) > 0.1 {
		t.Fatalf("z-score of mean+std should be ~1, got %.4f", z)
	}
}

func TestZScoreDegenerateCases(t *testing.T) {
	if z := zScore(5, []float64{1}); z != 0 {
		t.Fatalf("fewer than 2 samples should score 0, got %.4f", z)
	}
	if z := zScore(5, []float64{2, 2, 2}); z != 0 {
		t.Fatalf("zero std should score 0, got %.4f", z)
	}
}

func TestZScoresGatedUntilWindowFull(t *testing.T) {
	e := NewEngine(3, 5)

	var snap Snapshot
	for i := 0; i < 3; i++ {
		snap = e.Update(twoSidedBook(t, 100+float64(i), 5, 102+float64(i), 3))
		if i < 2 && snap.ImbalanceZScore != nil {
			t.Fatalf("imbalance z-score leaked before window full (event %d)", i)
		}
	}
	if snap.ImbalanceZScore == nil {
		t.Fatalf("imbalance z-score should appear once window holds %d entries", 3)
	}
	// Returns lag one event behind imbalances (first observation pushes none).
	if snap.ReturnZScore != nil {
		t.Fatalf("return z-score should still be gated")
	}
	snap = e.Update(twoSidedBook(t, 104, 5, 106, 3))
	if snap.ReturnZScore == nil {
		t.Fatalf("return z-score should appear after %d pushed returns", 3)
	}
}

func TestResetClearsState(t *testing.T) {
	e := NewEngine(3, 5)
	e.Update(twoSidedBook(t, 100, 1, 102, 1))
	e.Reset()

	snap := e.Update(twoSidedBook(t, 200, 1, 202, 1))
	if snap.MidPriceReturn == nil || *snap.MidPriceReturn != 0 {
		t.Fatalf("after reset the first return should be 0.0 again, got %+v", snap.MidPriceReturn)
	}
}
