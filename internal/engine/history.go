package engine

import (
	"time"

	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
	"github.com/navra-x01/MicrostructureAndExecution/internal/signal"
)

// TradeRecord is one executed trade as logged by the engine: the fill plus
// the resulting account state.
type TradeRecord struct {
	Timestamp     time.Time      `json:"timestamp"`
	Side          execution.Side `json:"side"`
	Price         float64        `json:"price"`
	Size          float64        `json:"size"`
	Fee           float64        `json:"fee"`
	Slippage      float64        `json:"slippage"`
	PositionAfter float64        `json:"position_after"`
	CashAfter     float64        `json:"cash_after"`
}

// history stores the append-only run output: trades, the per-event PnL
// series, signal snapshots, and event timestamps. The last three stay
// aligned index-for-index with processed events.
type history struct {
	trades     []TradeRecord
	pnl        []float64
	signals    []signal.Snapshot
	timestamps []time.Time
}

func (h *history) recordTrade(tr TradeRecord) {
	h.trades = append(h.trades, tr)
}

func (h *history) recordEvent(ts time.Time, pnl float64, snap signal.Snapshot) {
	h.timestamps = append(h.timestamps, ts)
	h.pnl = append(h.pnl, pnl)
	h.signals = append(h.signals, snap)
}

func (h *history) tradeLog() []TradeRecord {
	out := make([]TradeRecord, len(h.trades))
	copy(out, h.trades)
	return out
}

func (h *history) pnlHistory() []float64 {
	out := make([]float64, len(h.pnl))
	copy(out, h.pnl)
	return out
}

func (h *history) signalHistory() []signal.Snapshot {
	out := make([]signal.Snapshot, len(h.signals))
	copy(out, h.signals)
	return out
}

func (h *history) eventTimestamps() []time.Time {
	out := make([]time.Time, len(h.timestamps))
	copy(out, h.timestamps)
	return out
}
