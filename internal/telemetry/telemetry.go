// Package telemetry exposes process-wide prometheus counters and the
// /metrics endpoint.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of ticks fed into the pipeline"},
		[]string{"pair"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Closed trades by outcome"},
		[]string{"pair", "outcome"},
	)
	AnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tick_anomalies_total", Help: "Ticks dropped by the feed validator"},
		[]string{"pair", "kind"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, TradesTotal, AnomaliesTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
