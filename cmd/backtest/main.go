package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/navra-x01/MicrostructureAndExecution/internal/account"
	"github.com/navra-x01/MicrostructureAndExecution/internal/analysis"
	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
	"github.com/navra-x01/MicrostructureAndExecution/internal/config"
	"github.com/navra-x01/MicrostructureAndExecution/internal/engine"
	"github.com/navra-x01/MicrostructureAndExecution/internal/execution"
	"github.com/navra-x01/MicrostructureAndExecution/internal/metrics"
	"github.com/navra-x01/MicrostructureAndExecution/internal/replay"
	"github.com/navra-x01/MicrostructureAndExecution/internal/report"
	"github.com/navra-x01/MicrostructureAndExecution/internal/risk"
	"github.com/navra-x01/MicrostructureAndExecution/internal/signal"
	"github.com/navra-x01/MicrostructureAndExecution/internal/strategy"
	"github.com/navra-x01/MicrostructureAndExecution/internal/util"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "backtest",
		Usage: "replay L2 order book events through a mean reversion strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to YAML config file"},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "CSV event file; synthetic data is generated when omitted"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "directory for result files"},
			&cli.Float64Flag{Name: "cash", Usage: "override initial cash"},
			&cli.Int64Flag{Name: "seed", Usage: "override synthetic data seed"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error"},
			&cli.BoolFlag{Name: "pretty", Usage: "human-readable log output"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := util.NewLogger(c.String("log-level"), c.Bool("pretty"))

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, c)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, err := loadEvents(cfg, log)
	if err != nil {
		return err
	}

	b := book.New(cfg.Book.Depth, util.Component(log, "book"))
	signals := signal.NewEngine(cfg.Signal.WindowSize, cfg.Signal.ImbalanceDepth)
	strat := strategy.Build(cfg.Strategy.Mode, strategy.Params{
		EntryThreshold: cfg.Strategy.EntryThreshold,
		ExitThreshold:  cfg.Strategy.ExitThreshold,
		OrderSize:      cfg.Strategy.OrderSize,
	})
	sim := execution.NewSimulator(cfg.Execution.TakerFee)
	acct := account.New(cfg.Backtest.InitialCash)
	limits := risk.Limits{MaxOrderNotional: cfg.Risk.MaxOrderNotional}

	bt := engine.New(b, signals, strat, sim, acct, limits, util.Component(log, "engine"))

	start := time.Now()
	if err := bt.Run(ctx, src); err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	elapsed := time.Since(start)

	res := bt.Results()
	summary := analysis.Summarize(acct.TradeHistory(), res.PnLHistory, nil, cfg.Backtest.RiskFreeRate)

	if err := report.Save(cfg.Backtest.OutputDir, res, summary, util.Component(log, "report")); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	log.Info().
		Str("run_id", res.RunID).
		Str("strategy", strat.Name()).
		Int("events", res.EventsSeen).
		Int("trades", summary.TotalTrades).
		Float64("total_pnl", summary.TotalPnL).
		Float64("return_pct", summary.TotalReturnPct).
		Float64("sharpe", summary.SharpeRatio).
		Float64("max_drawdown", summary.Drawdown.Max).
		Float64("win_rate", summary.WinRate).
		Dur("elapsed", elapsed).
		Msg("backtest complete")
	return nil
}

func applyOverrides(cfg *config.Config, c *cli.Context) {
	if c.IsSet("data") {
		cfg.Backtest.DataFile = c.String("data")
	}
	if c.IsSet("output") {
		cfg.Backtest.OutputDir = c.String("output")
	}
	if c.IsSet("cash") {
		cfg.Backtest.InitialCash = c.Float64("cash")
	}
	if c.IsSet("seed") {
		cfg.Synthetic.Seed = c.Int64("seed")
	}
}

func loadEvents(cfg *config.Config, log zerolog.Logger) (*replay.Replayer, error) {
	if cfg.Backtest.DataFile != "" {
		return replay.LoadCSV(cfg.Backtest.DataFile, util.Component(log, "replay"))
	}

	gen := replay.GeneratorConfig{
		BasePrice:       cfg.Synthetic.BasePrice,
		NumSnapshots:    cfg.Synthetic.NumSnapshots,
		Interval:        time.Duration(cfg.Synthetic.IntervalMs) * time.Millisecond,
		PriceVolatility: cfg.Synthetic.PriceVolatility,
		SizeMin:         cfg.Synthetic.SizeMin,
		SizeMax:         cfg.Synthetic.SizeMax,
		SpreadBps:       cfg.Synthetic.SpreadBps,
		Depth:           cfg.Book.Depth,
		Seed:            cfg.Synthetic.Seed,
	}
	log.Info().Int("snapshots", gen.NumSnapshots).Int64("seed", gen.Seed).Msg("no data file, generating synthetic events")
	return replay.FromEvents(replay.Generate(gen)), nil
}
