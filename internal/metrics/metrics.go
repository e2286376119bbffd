package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

const namespace = "solar_guardian"

// Metrics holds the service collectors on a private registry. It implements
// fetchers.Observer.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	fetchTotal        *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	cacheLookups      *prometheus.CounterVec
	cbState           *prometheus.GaugeVec
	rowsSkipped       *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry,
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Histogram of upstream fetch durations by source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Upstream cache lookups by source and result (hit or miss).",
		}, []string{"source", "result"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cb_state",
			Help:      "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"source"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Malformed upstream rows dropped during normalization.",
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.fetchTotal,
		m.fetchDuration,
		m.cacheLookups,
		m.cbState,
		m.rowsSkipped,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency. The route label is the
// matched mux path template, so it must run inside the router.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		m.httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(snoop.Code)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(snoop.Duration.Seconds())
	})
}

func (m *Metrics) FetchCompleted(source, outcome string, elapsed time.Duration) {
	m.fetchTotal.WithLabelValues(source, outcome).Inc()
	m.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(source string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(source, result).Inc()
}

func (m *Metrics) BreakerStateChanged(source string, state gobreaker.State) {
	var value float64
	switch state {
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	m.cbState.WithLabelValues(source).Set(value)
}

func (m *Metrics) RowsSkipped(source string, n int) {
	m.rowsSkipped.WithLabelValues(source).Add(float64(n))
}
