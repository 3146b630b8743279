// Package analysis computes performance metrics over completed backtest
// histories: Sharpe ratio, maximum drawdown, win rate, and a run summary.
package analysis

import (
	"math"

	"github.com/navra-x01/MicrostructureAndExecution/internal/account"
	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
)

// PeriodsPerYear annualizes the Sharpe ratio; 252 trading days by default.
const PeriodsPerYear = 252

// Drawdown describes the largest peak-to-trough decline of a PnL series.
type Drawdown struct {
	Max     float64 `json:"max_drawdown"`
	Percent float64 `json:"max_drawdown_pct"`
	Start   int     `json:"drawdown_start"`
	End     int     `json:"drawdown_end"`
}

// Summary aggregates the headline metrics of one backtest run.
type Summary struct {
	TotalTrades    int      `json:"total_trades"`
	TotalPnL       float64  `json:"total_pnl"`
	TotalReturnPct float64  `json:"total_return_pct"`
	AvgTradePnL    float64  `json:"avg_trade_pnl"`
	WinRate        float64  `json:"win_rate"`
	SharpeRatio    float64  `json:"sharpe_ratio"`
	Drawdown       Drawdown `json:"drawdown"`
}

// SharpeRatio annualizes risk-adjusted return over a periodic return series.
// Returns 0 with fewer than 2 samples or zero standard deviation.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}
	if periodsPerYear <= 0 {
		periodsPerYear = PeriodsPerYear
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)))
	if std == 0 {
		return 0
	}

	periods := float64(periodsPerYear)
	return (mean - riskFreeRate/periods) / std * math.Sqrt(periods)
}

// MaxDrawdown scans a cumulative PnL series for the largest decline below
// its running peak.
func MaxDrawdown(pnl []float64) Drawdown {
	if len(pnl) < 2 {
		return Drawdown{}
	}

	var dd Drawdown
	peak := pnl[0]
	peakIdx := 0
	for i, v := range pnl {
		if v > peak {
			peak = v
			peakIdx = i
		}
		if drop := peak - v; drop > dd.Max {
			dd.Max = drop
			dd.Start = peakIdx
			dd.End = i
		}
	}
	if dd.Max > 0 && pnl[dd.Start] > 0 {
		dd.Percent = dd.Max / pnl[dd.Start] * 100
	}
	return dd
}

// WinRate is the fraction of closing trades that locked in a profit. The
// per-trade realized PnL is reconstructed from the fill sequence using the
// same average-entry rules the accountant applies.
func WinRate(trades []account.Trade) float64 {
	var position, avgEntry float64
	var wins, closes int

	for _, tr := range trades {
		realized, ok := applyTrade(&position, &avgEntry, tr)
		if !ok {
			continue
		}
		closes++
		if realized > 0 {
			wins++
		}
	}
	if closes == 0 {
		return 0
	}
	return float64(wins) / float64(closes)
}

// applyTrade advances the reconstructed position and reports the realized
// PnL delta; ok is false for trades that only open or extend a position.
func applyTrade(position, avgEntry *float64, tr account.Trade) (float64, bool) {
	pos, avg := *position, *avgEntry
	var realized float64
	closing := false

	if tr.Side == execution.Buy {
		switch {
		case pos < 0 && tr.Size <= -pos:
			realized = (avg - tr.Price) * tr.Size
			pos += tr.Size
			closing = true
		case pos < 0:
			realized = (avg - tr.Price) * -pos
			pos = tr.Size + pos
			avg = tr.Price
			closing = true
		case pos == 0:
			pos = tr.Size
			avg = tr.Price
		default:
			avg = (pos*avg + tr.Size*tr.Price) / (pos + tr.Size)
			pos += tr.Size
		}
	} else {
		switch {
		case pos > 0 && tr.Size <= pos:
			realized = (tr.Price - avg) * tr.Size
			pos -= tr.Size
			closing = true
		case pos > 0:
			realized = (tr.Price - avg) * pos
			pos -= tr.Size
			avg = tr.Price
			closing = true
		case pos == 0:
			pos = -tr.Size
			avg = tr.Price
		default:
			avg = (-pos*avg + tr.Size*tr.Price) / (-pos + tr.Size)
			pos -= tr.Size
		}
	}

	*position, *avgEntry = pos, avg
	return realized, closing
}

// Summarize builds the run summary from the trade log and PnL history.
// When returns is nil it is derived from consecutive PnL differences,
// normalized by the preceding absolute PnL.
func Summarize(trades []account.Trade, pnlHistory, returns []float64, riskFreeRate float64) Summary {
	if returns == nil && len(pnlHistory) > 1 {
		returns = make([]float64, 0, len(pnlHistory)-1)
		for i := 1; i < len(pnlHistory); i++ {
			returns = append(returns, (pnlHistory[i]-pnlHistory[i-1])/(math.Abs(pnlHistory[i-1])+1e-10))
		}
	}

	s := Summary{
		TotalTrades: len(trades),
		WinRate:     WinRate(trades),
		SharpeRatio: SharpeRatio(returns, riskFreeRate, PeriodsPerYear),
		Drawdown:    MaxDrawdown(pnlHistory),
	}
	if len(pnlHistory) > 0 {
		s.TotalPnL = pnlHistory[len(pnlHistory)-1]
		if initial := pnlHistory[0]; initial != 0 {
			s.TotalReturnPct = (s.TotalPnL - initial) / math.Abs(initial) * 100
		}
	}
	if len(trades) > 0 {
		s.AvgTradePnL = s.TotalPnL / float64(len(trades))
	}
	return s
}
