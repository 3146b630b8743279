// Package replay loads L2 order book events from CSV files or generates
// synthetic ones, and feeds them to the backtest engine one at a time.
package replay

import (
	"time"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

// EventType distinguishes full snapshots from single-level updates.
type EventType string

const (
	// Snapshot replaces both sides of the book.
	Snapshot EventType = "snapshot"
	// Update upserts or removes a single price level.
	Update EventType = "update"
)

// Event is one L2 order book event. Snapshot events carry Bids/Asks;
// update events carry Side, Price, Size, and Action.
type Event struct {
	Timestamp time.Time
	Type      EventType

	Bids []book.Level
	Asks []book.Level

	Side   book.Side
	Price  float64
	Size   float64
	Action book.Action
}

// Replayer emits a finite, ordered event sequence exactly once. It is not
// restartable: replaying again requires acquiring a fresh instance.
type Replayer struct {
	events []Event
	index  int
}

// FromEvents wraps an already-ordered event slice in a Replayer.
func FromEvents(events []Event) *Replayer {
	return &Replayer{events: events}
}

// Next returns the next event, or ok=false once the sequence is exhausted.
func (r *Replayer) Next() (Event, bool) {
	if r.index >= len(r.events) {
		return Event{}, false
	}
	ev := r.events[r.index]
	r.index++
	return ev, true
}

// HasNext reports whether events remain.
func (r *Replayer) HasNext() bool { return r.index < len(r.events) }

// Total returns the number of events in the sequence.
func (r *Replayer) Total() int { return len(r.events) }

// Progress returns the replayed fraction in [0, 1].
func (r *Replayer) Progress() float64 {
	if len(r.events) == 0 {
		return 0
	}
	return float64(r.index) / float64(len(r.events))
}
