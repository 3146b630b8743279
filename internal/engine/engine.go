// Package engine orchestrates the backtest: it feeds order book events
// through book mutation, signal computation, strategy decision, simulated
// execution, and accounting, recording all histories along the way.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/navra-x01/MicrostructureAndExecution/internal/account"
	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
	"github.com/navra-x01/MicrostructureAndExecution/internal/metrics"
	"github.com/navra-x01/MicrostructureAndExecution/internal/replay"
	"github.com/navra-x01/MicrostructureAndExecution/internal/risk"
	"github.com/navra-x01/MicrostructureAndExecution/internal/signal"
	"github.com/navra-x01/MicrostructureAndExecution/internal/strategy"
)

// State tracks the engine lifecycle: Init until Run is called, Running while
// events flow, Completed once the source is exhausted.
type State int

const (
	// StateInit is the state before Run.
	StateInit State = iota
	// StateRunning is the state while events are being processed.
	StateRunning
	// StateCompleted is the terminal state after the source is exhausted.
	StateCompleted
)

// EventSource is the replay collaborator: a finite, non-restartable
// sequence of L2 events consumed exactly once, in order.
type EventSource interface {
	Next() (replay.Event, bool)
}

// Results bundles the aligned output sequences of a completed run for the
// metrics collaborator, keyed by a run identifier.
type Results struct {
	RunID         string            `json:"run_id"`
	Trades        []TradeRecord     `json:"trades"`
	PnLHistory    []float64         `json:"pnl_history"`
	SignalHistory []signal.Snapshot `json:"signal_history"`
	Timestamps    []time.Time       `json:"timestamps"`
	EventsSeen    int               `json:"events_seen"`
	Final         account.Metrics   `json:"final_accounting"`
}

// Backtest wires one exclusive set of components together and drives them
// one event at a time. Components are never shared between engines; running
// two backtests concurrently requires two fully separate instances.
type Backtest struct {
	book    *book.Book
	signals *signal.Engine
	strat   strategy.Strategy
	sim     *execution.Simulator
	acct    *account.Accountant
	limits  risk.Limits

	runID string
	state State
	hist  history
	log   zerolog.Logger

	progressEvery int
}

// New assembles a backtest around the supplied components. Every component
// must be freshly constructed and owned by this engine alone.
func New(b *book.Book, sig *signal.Engine, strat strategy.Strategy, sim *execution.Simulator,
	acct *account.Accountant, limits risk.Limits, log zerolog.Logger) *Backtest {
	return &Backtest{
		book:          b,
		signals:       sig,
		strat:         strat,
		sim:           sim,
		acct:          acct,
		limits:        limits,
		runID:         uuid.NewString(),
		log:           log,
		progressEvery: 100,
	}
}

// RunID returns the identifier assigned to this backtest instance.
func (bt *Backtest) RunID() string { return bt.runID }

// State returns the current lifecycle state.
func (bt *Backtest) State() State { return bt.state }

// Run consumes the source until exhaustion, processing one event fully
// before pulling the next. ctx is checked between events only; a canceled
// context stops the run without leaving a partially-applied event.
func (bt *Backtest) Run(ctx context.Context, src EventSource) error {
	if bt.state != StateInit {
		return fmt.Errorf("backtest %s already ran", bt.runID)
	}
	bt.state = StateRunning
	bt.log.Info().Str("run_id", bt.runID).Str("strategy", bt.strat.Name()).Msg("backtest started")

	var processed int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, ok := src.Next()
		if !ok {
			break
		}
		if err := bt.step(ev); err != nil {
			return err
		}
		processed++
		if processed%bt.progressEvery == 0 {
			bt.log.Debug().Int("events", processed).Msg("backtest progress")
		}
	}

	bt.state = StateCompleted
	bt.log.Info().
		Str("run_id", bt.runID).
		Int("events", processed).
		Int("trades", len(bt.hist.trades)).
		Float64("realized_pnl", bt.acct.RealizedPnL()).
		Msg("backtest completed")
	return nil
}

// step processes a single event through the fixed pipeline order. Expected
// data conditions (empty book, thin liquidity, missing quotes) never fail;
// only integration errors such as an invalid side surface as errors.
func (bt *Backtest) step(ev replay.Event) error {
	switch ev.Type {
	case replay.Snapshot:
		bt.book.ApplySnapshot(ev.Bids, ev.Asks)
	case replay.Update:
		if err := bt.book.ApplyDiff(ev.Side, ev.Price, ev.Size, ev.Action); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()

	snap := bt.signals.Update(bt.book)
	snap.Timestamp = ev.Timestamp

	position := bt.acct.Position()
	if decision := bt.strat.Evaluate(snap, position); decision != nil {
		if err := bt.execute(ev.Timestamp, decision); err != nil {
			return err
		}
	}

	var pnl float64
	if mid, ok := bt.book.MidPrice(); ok {
		pnl = bt.acct.GetMetrics(&mid).TotalPnL
	} else {
		// No quote: unrealized PnL is undefined, fall back to realized.
		pnl = bt.acct.RealizedPnL()
	}
	bt.hist.recordEvent(ev.Timestamp, pnl, snap)
	return nil
}

func (bt *Backtest) execute(ts time.Time, decision *strategy.Decision) error {
	metrics.OrdersTotal.WithLabelValues(string(decision.Side)).Inc()

	if ref, ok, err := bt.sim.BestExecutionPrice(bt.book, decision.Side); err != nil {
		return err
	} else if ok && !bt.limits.Allow(decision.Quantity*ref) {
		bt.log.Warn().
			Str("side", string(decision.Side)).
			Float64("quantity", decision.Quantity).
			Float64("ref_price", ref).
			Msg("order rejected by notional limit")
		return nil
	}

	fill, err := bt.sim.ExecuteMarketOrder(bt.book, decision.Side, decision.Quantity)
	if err != nil {
		return err
	}
	if fill.Size <= 0 {
		return nil
	}

	if err := bt.acct.RecordFill(ts, fill.Side, fill.Price, fill.Size, fill.Fee); err != nil {
		return err
	}
	metrics.FillsTotal.WithLabelValues(string(fill.Side)).Inc()
	bt.hist.recordTrade(TradeRecord{
		Timestamp:     ts,
		Side:          fill.Side,
		Price:         fill.Price,
		Size:          fill.Size,
		Fee:           fill.Fee,
		Slippage:      fill.Slippage,
		PositionAfter: bt.acct.Position(),
		CashAfter:     bt.acct.Cash(),
	})
	return nil
}

// TradeLog returns the ordered list of executed trades.
func (bt *Backtest) TradeLog() []TradeRecord { return bt.hist.tradeLog() }

// PnLHistory returns the per-event mark-to-market PnL series.
func (bt *Backtest) PnLHistory() []float64 { return bt.hist.pnlHistory() }

// SignalHistory returns the per-event signal snapshots.
func (bt *Backtest) SignalHistory() []signal.Snapshot { return bt.hist.signalHistory() }

// Timestamps returns the processed event timestamps.
func (bt *Backtest) Timestamps() []time.Time { return bt.hist.eventTimestamps() }

// Results snapshots the run output for reporting and metrics aggregation.
func (bt *Backtest) Results() Results {
	var mid *float64
	if m, ok := bt.book.MidPrice(); ok {
		mid = &m
	}
	return Results{
		RunID:         bt.runID,
		Trades:        bt.TradeLog(),
		PnLHistory:    bt.PnLHistory(),
		SignalHistory: bt.SignalHistory(),
		Timestamps:    bt.Timestamps(),
		EventsSeen:    len(bt.hist.timestamps),
		Final:         bt.acct.GetMetrics(mid),
	}
}
