// Package strategy contains the decision logic that turns signal snapshots
// into orders.
package strategy

import (
	"math"

	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
	"github.com/navra-x01/MicrostructureAndExecution/internal/signal"
)

// Decision is an order request: a side and a quantity.
type Decision struct {
	Side     execution.Side
	Quantity float64
}

// MeanReversion trades against extreme z-scores: it buys deeply negative
// readings, sells deeply positive ones, and flattens once the score reverts
// toward zero. Imbalance z-score is preferred; return z-score is the
// fallback. The entry and exit thresholds are independent knobs with no
// enforced relationship.
type MeanReversion struct {
	entryThreshold float64
	exitThreshold  float64
	orderSize      float64

	// Advisory bookkeeping: decisions are gated by the caller-supplied
	// position, not these fields.
	side        positionSide
	entryZScore float64
}

type positionSide int

const (
	flat positionSide = iota
	long
	short
)

// Defaults applied when a constructor argument is non-positive.
const (
	DefaultEntryThreshold = 2.0
	DefaultExitThreshold  = 0.5
	DefaultOrderSize      = 100
)

// NewMeanReversion builds a mean reversion strategy from entry/exit z-score
// thresholds and a fixed order size.
func NewMeanReversion(entryThreshold, exitThreshold, orderSize float64) *MeanReversion {
	if entryThreshold <= 0 {
		entryThreshold = DefaultEntryThreshold
	}
	if exitThreshold <= 0 {
		exitThreshold = DefaultExitThreshold
	}
	if orderSize <= 0 {
		orderSize = DefaultOrderSize
	}
	return &MeanReversion{
		entryThreshold: entryThreshold,
		exitThreshold:  exitThreshold,
		orderSize:      orderSize,
	}
}

// Name returns the identifier for the strategy implementation.
func (s *MeanReversion) Name() string { return "MeanReversion" }

// Evaluate returns an order decision for the given signals and current
// signed position, or nil when no action is warranted.
func (s *MeanReversion) Evaluate(snap signal.Snapshot, position float64) *Decision {
	z := snap.ImbalanceZScore
	if z == nil {
		z = snap.ReturnZScore
	}
	if z == nil {
		return nil
	}
	score := *z

	switch {
	case position > 0:
		// Long: flatten once the score has reverted toward zero.
		if score >= -s.exitThreshold {
			s.side = flat
			s.entryZScore = 0
			return &Decision{Side: execution.Sell, Quantity: math.Abs(position)}
		}
	case position < 0:
		// Short: mirror of the long exit.
		if score <= s.exitThreshold {
			s.side = flat
			s.entryZScore = 0
			return &Decision{Side: execution.Buy, Quantity: math.Abs(position)}
		}
	default:
		if score < -s.entryThreshold {
			s.side = long
			s.entryZScore = score
			return &Decision{Side: execution.Buy, Quantity: s.orderSize}
		}
		if score > s.entryThreshold {
			s.side = short
			s.entryZScore = score
			return &Decision{Side: execution.Sell, Quantity: s.orderSize}
		}
	}
	return nil
}

// Reset clears the advisory position bookkeeping.
func (s *MeanReversion) Reset() {
	s.side = flat
	s.entryZScore = 0
}
