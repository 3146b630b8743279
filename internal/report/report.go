// Package report persists completed backtest output: trade, PnL, and signal
// histories as CSV plus a JSON metrics summary.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/navra-x01/MicrostructureAndExecution/internal/account"
	"github.com/navra-x01/MicrostructureAndExecution/internal/analysis"
	"github.com/navra-x01/MicrostructureAndExecution/internal/engine"
)

// Report is the JSON document written alongside the CSV files.
type Report struct {
	RunID     string           `json:"run_id"`
	Summary   analysis.Summary `json:"metrics"`
	Final     account.Metrics  `json:"final_accounting"`
	NumTrades int              `json:"num_trades"`
	NumEvents int              `json:"num_events"`
}

// Save writes trades.csv, pnl.csv, signals.csv, and metrics.json under dir.
func Save(dir string, res engine.Results, summary analysis.Summary, log zerolog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeTrades(filepath.Join(dir, "trades.csv"), res.Trades); err != nil {
		return err
	}
	if err := writePnL(filepath.Join(dir, "pnl.csv"), res.Timestamps, res.PnLHistory); err != nil {
		return err
	}
	if err := writeSignals(filepath.Join(dir, "signals.csv"), res); err != nil {
		return err
	}
	if err := writeMetrics(filepath.Join(dir, "metrics.json"), res, summary); err != nil {
		return err
	}

	log.Info().Str("dir", dir).Int("trades", len(res.Trades)).Int("events", res.EventsSeen).Msg("results saved")
	return nil
}

func writeTrades(path string, trades []engine.TradeRecord) error {
	return writeCSV(path, []string{
		"timestamp", "side", "price", "size", "fee", "slippage", "position_after", "cash_after",
	}, len(trades), func(i int) []string {
		t := trades[i]
		return []string{
			t.Timestamp.UTC().Format(time.RFC3339Nano),
			string(t.Side),
			formatFloat(t.Price),
			formatFloat(t.Size),
			formatFloat(t.Fee),
			formatFloat(t.Slippage),
			formatFloat(t.PositionAfter),
			formatFloat(t.CashAfter),
		}
	})
}

func writePnL(path string, timestamps []time.Time, pnl []float64) error {
	n := len(pnl)
	if len(timestamps) < n {
		n = len(timestamps)
	}
	return writeCSV(path, []string{"timestamp", "pnl"}, n, func(i int) []string {
		return []string{timestamps[i].UTC().Format(time.RFC3339Nano), formatFloat(pnl[i])}
	})
}

func writeSignals(path string, res engine.Results) error {
	return writeCSV(path, []string{
		"timestamp", "mid_price", "spread", "mid_price_return",
		"depth_imbalance", "imbalance_zscore", "return_zscore",
	}, len(res.SignalHistory), func(i int) []string {
		s := res.SignalHistory[i]
		return []string{
			s.Timestamp.UTC().Format(time.RFC3339Nano),
			formatOptional(s.MidPrice),
			formatOptional(s.Spread),
			formatOptional(s.MidPriceReturn),
			formatOptional(s.DepthImbalance),
			formatOptional(s.ImbalanceZScore),
			formatOptional(s.ReturnZScore),
		}
	})
}

func writeMetrics(path string, res engine.Results, summary analysis.Summary) error {
	doc := Report{
		RunID:     res.RunID,
		Summary:   summary,
		Final:     res.Final,
		NumTrades: len(res.Trades),
		NumEvents: res.EventsSeen,
	}
	data, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func writeCSV(path string, header []string, rows int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional renders absent values as empty cells, keeping "absent"
// distinguishable from zero in the exported data.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
