package replay

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

// GeneratorConfig tunes the synthetic L2 data generator. A fixed Seed makes
// the output reproducible.
type GeneratorConfig struct {
	BasePrice       float64
	NumSnapshots    int
	Interval        time.Duration
	PriceVolatility float64
	SizeMin         float64
	SizeMax         float64
	SpreadBps       float64
	Depth           int
	Seed            int64
}

// DefaultGeneratorConfig mirrors the standard simulation parameters.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		BasePrice:       100.0,
		NumSnapshots:    1000,
		Interval:        150 * time.Millisecond,
		PriceVolatility: 0.5,
		SizeMin:         10,
		SizeMax:         1000,
		SpreadBps:       5,
		Depth:           book.DefaultDepth,
		Seed:            1,
	}
}

var generatorStart = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// Generate produces snapshot events following a random walk around the base
// price, with the configured spread and uniformly random level sizes.
func Generate(cfg GeneratorConfig) []Event {
	if cfg.NumSnapshots <= 0 {
		cfg.NumSnapshots = DefaultGeneratorConfig().NumSnapshots
	}
	if cfg.Depth <= 0 {
		cfg.Depth = book.DefaultDepth
	}
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = DefaultGeneratorConfig().BasePrice
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultGeneratorConfig().Interval
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	price := cfg.BasePrice

	events := make([]Event, 0, cfg.NumSnapshots)
	for i := 0; i < cfg.NumSnapshots; i++ {
		price = math.Max(0.01, price+rng.NormFloat64()*cfg.PriceVolatility)
		spread := price * cfg.SpreadBps / 10000

		ev := Event{
			Timestamp: generatorStart.Add(time.Duration(i) * cfg.Interval),
			Type:      Snapshot,
		}
		for level := 0; level < cfg.Depth; level++ {
			offset := float64(level+1) * spread / float64(cfg.Depth)
			bidPx := round2(price - spread/2 - offset)
			askPx := round2(price + spread/2 + offset)
			ev.Bids = append(ev.Bids, book.Level{Price: bidPx, Size: randSize(rng, cfg)})
			ev.Asks = append(ev.Asks, book.Level{Price: askPx, Size: randSize(rng, cfg)})
		}
		events = append(events, ev)
	}
	return events
}

func randSize(rng *rand.Rand, cfg GeneratorConfig) float64 {
	lo, hi := cfg.SizeMin, cfg.SizeMax
	if hi <= lo {
		hi = lo + 1
	}
	return math.Round(lo + rng.Float64()*(hi-lo))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// WriteCSV saves snapshot events in the flat column layout LoadCSV reads.
// depth fixes the number of level columns; levels beyond it are dropped.
func WriteCSV(path string, events []Event, depth int) error {
	if depth <= 0 {
		depth = book.DefaultDepth
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"timestamp", "type"}
	for n := 1; n <= depth; n++ {
		header = append(header, fmt.Sprintf("bid_price_%d", n), fmt.Sprintf("bid_size_%d", n))
	}
	for n := 1; n <= depth; n++ {
		header = append(header, fmt.Sprintf("ask_price_%d", n), fmt.Sprintf("ask_size_%d", n))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, ev := range events {
		row := []string{ev.Timestamp.UTC().Format(time.RFC3339Nano), string(ev.Type)}
		row = appendLevelFields(row, ev.Bids, depth)
		row = appendLevelFields(row, ev.Asks, depth)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func appendLevelFields(row []string, levels []book.Level, depth int) []string {
	for n := 0; n < depth; n++ {
		if n < len(levels) {
			row = append(row,
				strconv.FormatFloat(levels[n].Price, 'f', -1, 64),
				strconv.FormatFloat(levels[n].Size, 'f', -1, 64))
		} else {
			row = append(row, "", "")
		}
	}
	return row
}
