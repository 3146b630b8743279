// Package signal derives microstructure statistics from order book state:
// mid-price log returns, depth imbalance, and rolling z-scores of both.
package signal

import (
	"math"
	"time"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

// Snapshot carries the signals computed for a single event. Nil fields mean
// the signal could not be computed (empty book, window not yet full).
type Snapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	MidPrice        *float64  `json:"mid_price,omitempty"`
	Spread          *float64  `json:"spread,omitempty"`
	MidPriceReturn  *float64  `json:"mid_price_return,omitempty"`
	DepthImbalance  *float64  `json:"depth_imbalance,omitempty"`
	ImbalanceZScore *float64  `json:"imbalance_zscore,omitempty"`
	ReturnZScore    *float64  `json:"return_zscore,omitempty"`
}

// Engine computes signals from successive book states, keeping rolling
// windows of mid prices, log returns, and depth imbalances. It is owned by
// a single backtest and is not safe for concurrent use.
type Engine struct {
	windowSize     int
	imbalanceDepth int

	midPrices  *window
	returns    *window
	imbalances *window

	prevMid    float64
	hasPrevMid bool
}

// Defaults applied when a constructor argument is non-positive.
const (
	DefaultWindowSize     = 100
	DefaultImbalanceDepth = 5
)

// NewEngine builds an engine with the given z-score window size and the
// number of levels summed for depth imbalance.
func NewEngine(windowSize, imbalanceDepth int) *Engine {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if imbalanceDepth <= 0 {
		imbalanceDepth = DefaultImbalanceDepth
	}
	return &Engine{
		windowSize:     windowSize,
		imbalanceDepth: imbalanceDepth,
		midPrices:      newWindow(windowSize + 1),
		returns:        newWindow(windowSize),
		imbalances:     newWindow(windowSize),
	}
}

// Update computes signals against the current book state and advances the
// rolling windows. When the book has no mid price the snapshot is returned
// with every signal absent and no window is touched.
func (e *Engine) Update(b *book.Book) Snapshot {
	var snap Snapshot

	mid, ok := b.MidPrice()
	if !ok {
		return snap
	}
	snap.MidPrice = &mid
	if spread, ok := b.Spread(); ok {
		snap.Spread = &spread
	}

	ret := 0.0
	if e.hasPrevMid && e.prevMid > 0 {
		ret = math.Log(mid / e.prevMid)
		e.returns.push(ret)
	}
	snap.MidPriceReturn = &ret

	e.midPrices.push(mid)
	e.prevMid = mid
	e.hasPrevMid = true

	if imb, ok := e.depthImbalance(b); ok {
		e.imbalances.push(imb)
		snap.DepthImbalance = &imb

		if e.imbalances.full() {
			z := zScore(imb, priorSamples(e.imbalances))
			snap.ImbalanceZScore = &z
		}
	}

	if e.returns.full() {
		z := zScore(ret, priorSamples(e.returns))
		snap.ReturnZScore = &z
	}

	return snap
}

// depthImbalance sums sizes over the top imbalanceDepth levels of each side
// and returns (bid-ask)/(bid+ask), in [-1, 1]. Absent when either side has
// no levels in scope or total size is zero.
func (e *Engine) depthImbalance(b *book.Book) (float64, bool) {
	bids, asks := b.TopDepth(e.imbalanceDepth)
	if len(bids) == 0 || len(asks) == 0 {
		return 0, false
	}

	var bidSize, askSize float64
	for _, lv := range bids {
		bidSize += lv.Size
	}
	for _, lv := range asks {
		askSize += lv.Size
	}

	total := bidSize + askSize
	if total == 0 {
		return 0, false
	}
	return (bidSize - askSize) / total, true
}

// priorSamples returns the window contents excluding the most recent push,
// so that a value is never scored against itself.
func priorSamples(w *window) []float64 {
	vals := w.values()
	if len(vals) == 0 {
		return vals
	}
	return vals[:len(vals)-1]
}

// zScore measures how many population standard deviations value sits from
// the sample mean. Returns 0 with fewer than 2 samples or zero deviation.
func zScore(value float64, samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(samples)))
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}

// Reset clears every rolling window, readying the engine for a fresh run.
func (e *Engine) Reset() {
	e.midPrices.reset()
	e.returns.reset()
	e.imbalances.reset()
	e.prevMid = 0
	e.hasPrevMid = false
}
