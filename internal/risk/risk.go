// Package risk holds pre-trade guard rails applied before orders reach the
// execution simulator.
package risk

// Limits caps the notional value a single order may carry. A zero cap
// disables the check.
type Limits struct {
	MaxOrderNotional float64
}

// Allow reports whether an order of the given notional value may proceed.
func (l Limits) Allow(notional float64) bool {
	return l.MaxOrderNotional <= 0 || notional <= l.MaxOrderNotional
}
