// Package metrics defines the Prometheus collectors for document parsing
// and its sinks, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the ingestion core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocsParsedTotal      *prometheus.CounterVec
	ParseDuration        *prometheus.HistogramVec
	TokensEmittedTotal   prometheus.Counter
	ParseWarningsTotal   prometheus.Counter
	SinkWritesTotal      *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocsParsedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_parsed_total",
				Help: "Total documents parsed by parser type and outcome (ok, malformed, failed).",
			},
			[]string{"parser", "status"},
		),
		ParseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parse_duration_seconds",
				Help:    "Time spent parsing one document.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"parser"},
		),
		TokensEmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokens_emitted_total",
				Help: "Total tokens produced by the tokenizer.",
			},
		),
		ParseWarningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "parse_warnings_total",
				Help: "Total non-fatal findings reported while parsing.",
			},
		),
		SinkWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sink_writes_total",
				Help: "Parsed-document writes by sink and status.",
			},
			[]string{"sink", "status"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocsParsedTotal,
		m.ParseDuration,
		m.TokensEmittedTotal,
		m.ParseWarningsTotal,
		m.SinkWritesTotal,
		m.CircuitBreakerState,
	)

	return m
}

// ObserveParse records one finished document.
func (m *Metrics) ObserveParse(parser, status string, elapsed time.Duration, tokens, warnings int) {
	if m == nil {
		return
	}
	m.DocsParsedTotal.WithLabelValues(parser, status).Inc()
	m.ParseDuration.WithLabelValues(parser).Observe(elapsed.Seconds())
	m.TokensEmittedTotal.Add(float64(tokens))
	m.ParseWarningsTotal.Add(float64(warnings))
}

// ObserveSink records one sink write.
func (m *Metrics) ObserveSink(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SinkWritesTotal.WithLabelValues(sink, status).Inc()
}

// SetBreakerState publishes a circuit breaker's state.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
