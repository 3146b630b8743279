// Package account tracks position, cash, and realized/unrealized PnL from
// executed fills.
package account

import (
	"fmt"
	"math"
	"time"

	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
)

// Trade is one append-only history entry recorded per fill.
type Trade struct {
	Timestamp     time.Time      `json:"timestamp"`
	Side          execution.Side `json:"side"`
	Price         float64        `json:"price"`
	Size          float64        `json:"size"`
	Fee           float64        `json:"fee"`
	PositionAfter float64        `json:"position_after"`
	CashAfter     float64        `json:"cash_after"`
}

// Metrics is a point-in-time accounting summary. Unrealized PnL and the
// mark-to-market total value require a mid price; without one they fall
// back to zero and cash respectively.
type Metrics struct {
	Position      float64 `json:"position"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	Cash          float64 `json:"cash"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalValue    float64 `json:"total_value"`
}

// DefaultInitialCash seeds the account when no balance is configured.
const DefaultInitialCash = 100000.0

// Accountant keeps a signed position (positive long, negative short), cash,
// and the realized PnL locked in by closing trades. It is owned by a single
// backtest and is not safe for concurrent use.
type Accountant struct {
	initialCash   float64
	cash          float64
	position      float64
	avgEntryPrice float64
	realizedPnL   float64
	history       []Trade
}

// New creates an accountant holding the given starting cash.
func New(initialCash float64) *Accountant {
	if initialCash <= 0 {
		initialCash = DefaultInitialCash
	}
	return &Accountant{initialCash: initialCash, cash: initialCash}
}

// Position returns the current signed position size.
func (a *Accountant) Position() float64 { return a.position }

// Cash returns the current cash balance.
func (a *Accountant) Cash() float64 { return a.cash }

// RealizedPnL returns the profit locked in by closing trades so far.
func (a *Accountant) RealizedPnL() float64 { return a.realizedPnL }

// AvgEntryPrice returns the weighted average entry price of the open position.
func (a *Accountant) AvgEntryPrice() float64 { return a.avgEntryPrice }

// RecordFill applies one fill to position, cash, and realized PnL, and
// appends a trade to the history. A fill larger than the opposing position
// reverses it: the old position closes at its average entry price and the
// remainder opens fresh at the fill price.
func (a *Accountant) RecordFill(ts time.Time, side execution.Side, price, size, fee float64) error {
	switch side {
	case execution.Buy:
		a.recordBuy(price, size, fee)
	case execution.Sell:
		a.recordSell(price, size, fee)
	default:
		return fmt.Errorf("%w: %q", execution.ErrInvalidSide, side)
	}

	a.history = append(a.history, Trade{
		Timestamp:     ts,
		Side:          side,
		Price:         price,
		Size:          size,
		Fee:           fee,
		PositionAfter: a.position,
		CashAfter:     a.cash,
	})
	return nil
}

func (a *Accountant) recordBuy(price, size, fee float64) {
	if a.position < 0 {
		if size <= -a.position {
			// Closing (part of) the short.
			a.realizedPnL += (a.avgEntryPrice - price) * size
			a.position += size
		} else {
			// Reversal: close the whole short, open a long with the rest.
			closeSize := -a.position
			a.realizedPnL += (a.avgEntryPrice - price) * closeSize
			a.position = size - closeSize
			a.avgEntryPrice = price
		}
	} else if a.position == 0 {
		a.position = size
		a.avgEntryPrice = price
	} else {
		total := a.position*a.avgEntryPrice + size*price
		a.position += size
		a.avgEntryPrice = total / a.position
	}
	a.cash -= size*price + fee
}

func (a *Accountant) recordSell(price, size, fee float64) {
	if a.position > 0 {
		if size <= a.position {
			// Closing (part of) the long.
			a.realizedPnL += (price - a.avgEntryPrice) * size
			a.position -= size
		} else {
			// Reversal: close the whole long, open a short with the rest.
			closeSize := a.position
			a.realizedPnL += (price - a.avgEntryPrice) * closeSize
			a.position = -(size - closeSize)
			a.avgEntryPrice = price
		}
	} else if a.position == 0 {
		a.position = -size
		a.avgEntryPrice = price
	} else {
		total := -a.position*a.avgEntryPrice + size*price
		a.position -= size
		a.avgEntryPrice = total / -a.position
	}
	a.cash += size*price - fee
}

// UnrealizedPnL marks the open position to the given mid price. Flat
// positions carry no unrealized PnL.
func (a *Accountant) UnrealizedPnL(midPrice float64) float64 {
	switch {
	case a.position > 0:
		return (midPrice - a.avgEntryPrice) * a.position
	case a.position < 0:
		return (a.avgEntryPrice - midPrice) * math.Abs(a.position)
	default:
		return 0
	}
}

// GetMetrics summarizes the account, marking to market when a mid price is
// supplied (nil means no quote is available).
func (a *Accountant) GetMetrics(midPrice *float64) Metrics {
	m := Metrics{
		Position:      a.position,
		AvgEntryPrice: a.avgEntryPrice,
		Cash:          a.cash,
		RealizedPnL:   a.realizedPnL,
		TotalPnL:      a.realizedPnL,
		TotalValue:    a.cash,
	}
	if midPrice != nil {
		m.UnrealizedPnL = a.UnrealizedPnL(*midPrice)
		m.TotalPnL = a.realizedPnL + m.UnrealizedPnL
		if a.position != 0 {
			m.TotalValue = a.cash + a.position*(*midPrice)
		}
	}
	return m
}

// TradeHistory returns a copy of the append-only trade log.
func (a *Accountant) TradeHistory() []Trade {
	out := make([]Trade, len(a.history))
	copy(out, a.history)
	return out
}

// Reset restores the initial cash balance and clears all positions and history.
func (a *Accountant) Reset() {
	a.cash = a.initialCash
	a.position = 0
	a.avgEntryPrice = 0
	a.realizedPnL = 0
	a.history = nil
}
