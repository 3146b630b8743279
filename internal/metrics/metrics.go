// Package metrics exposes prometheus counters for backtest runs and an
// optional /metrics HTTP endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts order book events processed, by event type.
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_events_total", Help: "Order book events processed"},
		[]string{"type"},
	)
	// OrdersTotal counts strategy decisions sent to the execution simulator.
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_orders_total", Help: "Orders requested by the strategy"},
		[]string{"side"},
	)
	// FillsTotal counts orders that executed with non-zero size.
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_fills_total", Help: "Orders filled with non-zero size"},
		[]string{"side"},
	)
)

func init() {
	prometheus.MustRegister(EventsTotal, OrdersTotal, FillsTotal)
}

// Serve starts a /metrics endpoint on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
