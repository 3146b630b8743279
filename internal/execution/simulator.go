// Package execution simulates market-order fills against an order book,
// walking price levels, charging taker fees, and tracking slippage.
package execution

import (
	"errors"
	"fmt"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

// ErrInvalidSide is returned when an order names a side other than buy or sell.
var ErrInvalidSide = errors.New("invalid order side")

// Side enumerates order directions.
type Side string

const (
	// Buy lifts the ask side of the book.
	Buy Side = "buy"
	// Sell hits the bid side of the book.
	Sell Side = "sell"
)

// Fill is the outcome of one simulated market order. Size may be smaller
// than the requested quantity when the book is thin; an all-zero Fill means
// nothing executed.
type Fill struct {
	Side     Side    `json:"side"`
	Price    float64 `json:"price"`
	Size     float64 `json:"size"`
	Fee      float64 `json:"fee"`
	Slippage float64 `json:"slippage"`
}

// DefaultTakerFee is the liquidity-taking fee rate applied when none is configured.
const DefaultTakerFee = 0.001

// Simulator fills market orders by walking book levels from best to worst.
type Simulator struct {
	takerFee float64
}

// NewSimulator builds a simulator charging the given taker fee rate.
func NewSimulator(takerFee float64) *Simulator {
	if takerFee <= 0 {
		takerFee = DefaultTakerFee
	}
	return &Simulator{takerFee: takerFee}
}

// ExecuteMarketOrder fills quantity against the book. Buys walk the asks
// from best to worst, sells walk the bids. The fill price is the
// quantity-weighted average over executed levels; partial fills are the
// documented behaviour for thin books, and a non-positive quantity or an
// empty side yields the zero Fill. An unknown side is an error.
func (s *Simulator) ExecuteMarketOrder(b *book.Book, side Side, quantity float64) (Fill, error) {
	if side != Buy && side != Sell {
		return Fill{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if quantity <= 0 {
		return Fill{Side: side}, nil
	}

	bids, asks := b.TopDepth(0)
	levels := asks
	if side == Sell {
		levels = bids
	}
	if len(levels) == 0 {
		return Fill{Side: side}, nil
	}

	bestPrice := levels[0].Price
	remaining := quantity
	var notional, filled float64
	for _, lv := range levels {
		if remaining <= 0 {
			break
		}
		take := remaining
		if lv.Size < take {
			take = lv.Size
		}
		notional += take * lv.Price
		filled += take
		remaining -= take
	}
	if filled == 0 {
		return Fill{Side: side}, nil
	}

	price := notional / filled
	slippage := (price - bestPrice) * filled
	if side == Sell {
		slippage = (bestPrice - price) * filled
	}

	return Fill{
		Side:     side,
		Price:    price,
		Size:     filled,
		Fee:      filled * price * s.takerFee,
		Slippage: slippage,
	}, nil
}

// BestExecutionPrice reports the price a marginal order would pay: best ask
// for buys, best bid for sells. ok is false when that side is empty.
func (s *Simulator) BestExecutionPrice(b *book.Book, side Side) (price float64, ok bool, err error) {
	switch side {
	case Buy:
		price, ok = b.BestAsk()
	case Sell:
		price, ok = b.BestBid()
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	return price, ok, nil
}
