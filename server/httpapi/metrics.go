package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// RequestTotal counts HTTP requests by route and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests.
	RequestDuration *prometheus.HistogramVec
	// WindowsTotal counts resolved windows by dataset and resolution path.
	WindowsTotal *prometheus.CounterVec
	// WindowRows is the number of rows returned per window.
	WindowRows prometheus.Histogram
	// RejectedTotal counts requests refused before resolution.
	RejectedTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with Go runtime metrics
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridsource_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridsource_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WindowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridsource_windows_total",
				Help: "Total number of resolved data windows",
			},
			[]string{"dataset", "path"},
		),
		WindowRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridsource_window_rows",
				Help:    "Rows returned per data window",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		RejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridsource_rejected_requests_total",
				Help: "Requests refused by limits or failure injection",
			},
			[]string{"reason"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeWindow(dataset string, pushdown bool, rows int) {
	path := "memory"
	if pushdown {
		path = "pushdown"
	}
	m.WindowsTotal.WithLabelValues(dataset, path).Inc()
	m.WindowRows.Observe(float64(rows))
}
