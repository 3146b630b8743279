// Package book implements a bounded L2 order book holding the top N bid and
// ask price levels, mutated by full snapshots or single-level diffs.
package book

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// ErrInvalidSide is returned when a mutation names a side other than bid or ask.
var ErrInvalidSide = errors.New("invalid side")

// Side identifies which half of the book a level belongs to.
type Side string

const (
	// Bid is the buy side of the book, sorted descending by price.
	Bid Side = "bid"
	// Ask is the sell side of the book, sorted ascending by price.
	Ask Side = "ask"
)

// Action tells a diff whether to upsert or delete a price level.
type Action string

const (
	// Update upserts the level at the given price.
	Update Action = "update"
	// Remove deletes the level at the given price if present.
	Remove Action = "remove"
)

// Level is a single price level: a price and the aggregate size resting there.
type Level struct {
	Price float64
	Size  float64
}

// Book keeps the top `depth` levels per side. Bids are sorted descending,
// asks ascending, with at most one level per price. The best_bid < best_ask
// invariant is soft: violations are logged and processing continues.
type Book struct {
	depth int
	bids  []Level
	asks  []Level
	log   zerolog.Logger
}

// DefaultDepth is the number of levels retained per side when none is given.
const DefaultDepth = 5

// New creates an empty book retaining up to depth levels per side.
func New(depth int, log zerolog.Logger) *Book {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Book{depth: depth, log: log}
}

// Depth returns the maximum number of levels retained per side.
func (b *Book) Depth() int { return b.depth }

// ApplySnapshot replaces both ladders. Input levels are de-duplicated by
// price (last occurrence wins), sorted, and truncated to the book depth.
func (b *Book) ApplySnapshot(bids, asks []Level) {
	b.bids = normalize(bids, b.depth, true)
	b.asks = normalize(asks, b.depth, false)
	b.checkInvariant()
}

// ApplyDiff applies a single-level update. A Remove action or non-positive
// size deletes the level (no-op if absent); otherwise the level is upserted
// and the side re-sorted and re-truncated.
func (b *Book) ApplyDiff(side Side, price, size float64, action Action) error {
	if side != Bid && side != Ask {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if action == Remove || size <= 0 {
		b.removeLevel(side, price)
	} else {
		b.upsertLevel(side, price, size)
	}
	b.checkInvariant()
	return nil
}

func (b *Book) upsertLevel(side Side, price, size float64) {
	if side == Bid {
		b.bids = normalize(append(dropPrice(b.bids, price), Level{Price: price, Size: size}), b.depth, true)
	} else {
		b.asks = normalize(append(dropPrice(b.asks, price), Level{Price: price, Size: size}), b.depth, false)
	}
}

func (b *Book) removeLevel(side Side, price float64) {
	if side == Bid {
		b.bids = dropPrice(b.bids, price)
	} else {
		b.asks = dropPrice(b.asks, price)
	}
}

// BestBid returns the highest bid price, or false if the bid side is empty.
func (b *Book) BestBid() (float64, bool) {
	if len(b.bids) == 0 {
		return 0, false
	}
	return b.bids[0].Price, true
}

// BestAsk returns the lowest ask price, or false if the ask side is empty.
func (b *Book) BestAsk() (float64, bool) {
	if len(b.asks) == 0 {
		return 0, false
	}
	return b.asks[0].Price, true
}

// MidPrice returns the arithmetic mean of best bid and best ask, or false
// if either side is empty.
func (b *Book) MidPrice() (float64, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return (bid + ask) / 2.0, true
}

// Spread returns best ask minus best bid, or false if either side is empty.
func (b *Book) Spread() (float64, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return ask - bid, true
}

// TopDepth returns copies of the first k levels of each side. A non-positive
// k means the full book depth.
func (b *Book) TopDepth(k int) (bids, asks []Level) {
	if k <= 0 {
		k = b.depth
	}
	return copyLevels(b.bids, k), copyLevels(b.asks, k)
}

// checkInvariant logs a warning when best_bid >= best_ask. The book is left
// as-is; a crossed book is treated as an upstream data-quality signal.
func (b *Book) checkInvariant() {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if okB && okA && bid >= ask {
		b.log.Warn().Float64("best_bid", bid).Float64("best_ask", ask).Msg("order book crossed: best_bid >= best_ask")
	}
}

func dropPrice(levels []Level, price float64) []Level {
	out := levels[:0]
	for _, lv := range levels {
		if lv.Price != price {
			out = append(out, lv)
		}
	}
	return out
}

// normalize de-duplicates by price (later entries win), sorts, and truncates.
func normalize(levels []Level, depth int, descending bool) []Level {
	byPrice := make(map[float64]int, len(levels))
	out := make([]Level, 0, len(levels))
	for _, lv := range levels {
		if idx, ok := byPrice[lv.Price]; ok {
			out[idx] = lv
			continue
		}
		byPrice[lv.Price] = len(out)
		out = append(out, lv)
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	if len(out) > depth {
		out = out[:depth]
	}
	return out
}

func copyLevels(levels []Level, k int) []Level {
	if k > len(levels) {
		k = len(levels)
	}
	out := make([]Level, k)
	copy(out, levels[:k])
	return out
}
