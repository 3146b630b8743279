// Package config exposes strongly typed simulation configuration loaded
// from YAML with environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name" env:"BT_APP_NAME"`
	MetricsAddr string `yaml:"metrics_addr" env:"BT_METRICS_ADDR"`
	LogLevel    string `yaml:"log_level" env:"BT_LOG_LEVEL"`
}

// Book configures the order book shape.
type Book struct {
	Depth int `yaml:"depth" env:"BT_BOOK_DEPTH"`
}

// Signal configures the rolling statistics engine.
type Signal struct {
	WindowSize     int `yaml:"window_size" env:"BT_SIGNAL_WINDOW_SIZE"`
	ImbalanceDepth int `yaml:"imbalance_depth" env:"BT_IMBALANCE_DEPTH"`
}

// Strategy selects the active strategy and its thresholds. The entry and
// exit thresholds are deliberately independent and unvalidated.
type Strategy struct {
	Mode           string  `yaml:"mode" env:"BT_STRATEGY_MODE"`
	EntryThreshold float64 `yaml:"entry_threshold" env:"BT_ENTRY_THRESHOLD"`
	ExitThreshold  float64 `yaml:"exit_threshold" env:"BT_EXIT_THRESHOLD"`
	OrderSize      float64 `yaml:"order_size" env:"BT_ORDER_SIZE"`
}

// Execution configures the market-order simulator.
type Execution struct {
	TakerFee float64 `yaml:"taker_fee" env:"BT_TAKER_FEE"`
}

// Backtest holds run-level settings.
type Backtest struct {
	InitialCash  float64 `yaml:"initial_cash" env:"BT_INITIAL_CASH"`
	RiskFreeRate float64 `yaml:"risk_free_rate" env:"BT_RISK_FREE_RATE"`
	DataFile     string  `yaml:"data_file" env:"BT_DATA_FILE"`
	OutputDir    string  `yaml:"output_dir" env:"BT_OUTPUT_DIR"`
}

// Risk encodes pre-trade guard rails.
type Risk struct {
	MaxOrderNotional float64 `yaml:"max_order_notional" env:"BT_MAX_ORDER_NOTIONAL"`
}

// Synthetic tunes the synthetic L2 data generator.
type Synthetic struct {
	BasePrice       float64 `yaml:"base_price" env:"BT_SYN_BASE_PRICE"`
	NumSnapshots    int     `yaml:"num_snapshots" env:"BT_SYN_NUM_SNAPSHOTS"`
	IntervalMs      int     `yaml:"interval_ms" env:"BT_SYN_INTERVAL_MS"`
	PriceVolatility float64 `yaml:"price_volatility" env:"BT_SYN_PRICE_VOLATILITY"`
	SizeMin         float64 `yaml:"size_min" env:"BT_SYN_SIZE_MIN"`
	SizeMax         float64 `yaml:"size_max" env:"BT_SYN_SIZE_MAX"`
	SpreadBps       float64 `yaml:"spread_bps" env:"BT_SYN_SPREAD_BPS"`
	Seed            int64   `yaml:"seed" env:"BT_SYN_SEED"`
}

// Config collects every configuration leaf.
type Config struct {
	App       App       `yaml:"app"`
	Book      Book      `yaml:"book"`
	Signal    Signal    `yaml:"signal"`
	Strategy  Strategy  `yaml:"strategy"`
	Execution Execution `yaml:"execution"`
	Backtest  Backtest  `yaml:"backtest"`
	Risk      Risk      `yaml:"risk"`
	Synthetic Synthetic `yaml:"synthetic"`
}

// Default returns the standard simulation parameters.
func Default() Config {
	return Config{
		App: App{
			Name:        "microstructure-backtest",
			MetricsAddr: ":9091",
			LogLevel:    "info",
		},
		Book:   Book{Depth: 5},
		Signal: Signal{WindowSize: 100, ImbalanceDepth: 5},
		Strategy: Strategy{
			Mode:           "mean_reversion",
			EntryThreshold: 2.0,
			ExitThreshold:  0.5,
			OrderSize:      100,
		},
		Execution: Execution{TakerFee: 0.001},
		Backtest: Backtest{
			InitialCash:  100000,
			RiskFreeRate: 0,
			OutputDir:    "outputs",
		},
		Synthetic: Synthetic{
			BasePrice:       100.0,
			NumSnapshots:    1000,
			IntervalMs:      150,
			PriceVolatility: 0.5,
			SizeMin:         10,
			SizeMax:         1000,
			SpreadBps:       5,
			Seed:            1,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then environment-variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
