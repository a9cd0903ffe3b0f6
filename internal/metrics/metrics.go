package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coinalert"

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics for the scrape endpoint
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	cyclesTotal       prometheus.Counter
	cycleDuration     prometheus.Histogram
	evaluationsTotal  *prometheus.CounterVec
	reasonsTotal      *prometheus.CounterVec
	skipsTotal        *prometheus.CounterVec
	deliveriesTotal   *prometheus.CounterVec
	fetchesTotal      *prometheus.CounterVec
	fallbacksTotal    prometheus.Counter
	watchlistSymbols  prometheus.Gauge
	lastCycleUnixTime prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.cyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of alert cycles completed",
		},
	)
	r.cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Alert cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
	r.evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Symbols evaluated, by recommendation",
		},
		[]string{"symbol", "recommendation"},
	)
	r.reasonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reasons_total",
			Help:      "Rule reasons fired",
		},
		[]string{"reason"},
	)
	r.skipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Symbols skipped in a cycle, by cause",
		},
		[]string{"cause"},
	)
	r.deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Messages handed to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Price history fetches per provider",
		},
		[]string{"provider", "status"},
	)
	r.fallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Cycles that produced no evaluation and sent the fallback message",
		},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchlist_symbols",
			Help:      "Number of symbols in watchlist",
		},
	)
	r.lastCycleUnixTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last cycle finished",
		},
	)

	reg.MustRegister(r.cyclesTotal)
	reg.MustRegister(r.cycleDuration)
	reg.MustRegister(r.evaluationsTotal)
	reg.MustRegister(r.reasonsTotal)
	reg.MustRegister(r.skipsTotal)
	reg.MustRegister(r.deliveriesTotal)
	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fallbacksTotal)
	reg.MustRegister(r.watchlistSymbols)
	reg.MustRegister(r.lastCycleUnixTime)

	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordCycle records a finished cycle.
func (r *Registry) RecordCycle(duration float64, finishedUnix int64) {
	r.cyclesTotal.Inc()
	r.cycleDuration.Observe(duration)
	r.lastCycleUnixTime.Set(float64(finishedUnix))
}

// RecordEvaluation records one evaluated symbol and the reasons it fired.
func (r *Registry) RecordEvaluation(symbol, recommendation string, reasons []string) {
	r.evaluationsTotal.WithLabelValues(symbol, recommendation).Inc()
	for _, reason := range reasons {
		r.reasonsTotal.WithLabelValues(reason).Inc()
	}
}

// RecordSkip records a symbol skipped for cause.
func (r *Registry) RecordSkip(cause string) {
	r.skipsTotal.WithLabelValues(cause).Inc()
}

// RecordDelivery records one notifier attempt outcome.
func (r *Registry) RecordDelivery(notifier, status string) {
	r.deliveriesTotal.WithLabelValues(notifier, status).Inc()
}

// RecordFetch records a provider fetch outcome.
func (r *Registry) RecordFetch(provider, status string) {
	r.fetchesTotal.WithLabelValues(provider, status).Inc()
}

// RecordFallback records a cycle that sent the fallback message.
func (r *Registry) RecordFallback() {
	r.fallbacksTotal.Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
