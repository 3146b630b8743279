package strategy

import (
	"strings"

	"github.com/navra-x01/MicrostructureAndExecution/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations.
type Strategy interface {
	Evaluate(snap signal.Snapshot, position float64) *Decision
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	EntryThreshold float64
	ExitThreshold  float64
	OrderSize      float64
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "mean_reversion", "meanreversion":
		return NewMeanReversion(params.EntryThreshold, params.ExitThreshold, params.OrderSize)
	default:
		return NewMeanReversion(params.EntryThreshold, params.ExitThreshold, params.OrderSize)
	}
}
