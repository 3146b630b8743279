package replay

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/navra-x01/MicrostructureAndExecution/internal/book"
)

// Timestamp layouts accepted in CSV input, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// LoadCSV reads L2 events from a CSV file and returns a fresh Replayer over
// them, sorted by timestamp. Snapshot rows use bid_price_N/bid_size_N and
// ask_price_N/ask_size_N columns; update rows use side/price/size/action.
func LoadCSV(path string, log zerolog.Logger) (*Replayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv %s has no data rows", path)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	events := make([]Event, 0, len(rows)-1)
	for n, row := range rows[1:] {
		ev, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", n+2, err)
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	log.Info().Int("events", len(events)).Str("file", path).Msg("loaded order book events")
	return FromEvents(events), nil
}

func parseRow(row []string, cols map[string]int) (Event, error) {
	ts, err := parseTimestamp(field(row, cols, "timestamp"))
	if err != nil {
		return Event{}, err
	}

	typ := EventType(strings.ToLower(field(row, cols, "type")))
	switch typ {
	case Update:
		return parseUpdate(ts, row, cols)
	case Snapshot, "":
		return parseSnapshot(ts, row, cols)
	default:
		return Event{}, fmt.Errorf("unknown event type %q", typ)
	}
}

func parseSnapshot(ts time.Time, row []string, cols map[string]int) (Event, error) {
	ev := Event{Timestamp: ts, Type: Snapshot}
	ev.Bids = parseLevels(row, cols, "bid")
	ev.Asks = parseLevels(row, cols, "ask")
	return ev, nil
}

// parseLevels reads <side>_price_N/<side>_size_N columns until the price
// column no longer exists. Levels with missing or non-positive values are
// skipped.
func parseLevels(row []string, cols map[string]int, side string) []book.Level {
	var levels []book.Level
	for n := 1; ; n++ {
		priceCol := fmt.Sprintf("%s_price_%d", side, n)
		if _, present := cols[priceCol]; !present {
			break
		}
		price, okP := floatField(row, cols, priceCol)
		size, okS := floatField(row, cols, fmt.Sprintf("%s_size_%d", side, n))
		if okP && okS && price > 0 && size > 0 {
			levels = append(levels, book.Level{Price: price, Size: size})
		}
	}
	return levels
}

func parseUpdate(ts time.Time, row []string, cols map[string]int) (Event, error) {
	side := book.Side(strings.ToLower(field(row, cols, "side")))
	if side == "" {
		side = book.Bid
	}
	price, _ := floatField(row, cols, "price")
	size, _ := floatField(row, cols, "size")
	action := book.Action(strings.ToLower(field(row, cols, "action")))
	if action == "" {
		action = book.Update
	}
	return Event{Timestamp: ts, Type: Update, Side: side, Price: price, Size: size, Action: action}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func floatField(row []string, cols map[string]int, name string) (float64, bool) {
	s := field(row, cols, name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
