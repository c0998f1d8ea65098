// Package metrics registers the process collectors and serves /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fetch_requests_total", Help: "Outbound exchange requests"},
		[]string{"exchange"},
	)
	FetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fetch_failures_total", Help: "Exchange requests that failed after retry"},
		[]string{"exchange"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_cache_hits_total", Help: "Quote cache hits"},
		[]string{"kind"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_cache_misses_total", Help: "Quote cache misses (absent or expired)"},
		[]string{"kind"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_emitted_total", Help: "Trading signals that cleared the confidence threshold"},
		[]string{"symbol", "side"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "scan_duration_seconds", Help: "Wall time of one full symbol scan"},
	)
)

func init() {
	prometheus.MustRegister(FetchRequestsTotal, FetchFailuresTotal, CacheHitsTotal, CacheMissesTotal, SignalsTotal, ScanDuration)
}

// Serve exposes /metrics on addr and returns the server for shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
