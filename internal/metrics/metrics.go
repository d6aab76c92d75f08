// Package metrics collects Prometheus metrics for a browsing session:
// request counts, retries, downloads, and history depth.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session's collectors. Register one per registry; tests
// inject their own registerer for isolation.
type Metrics struct {
	requests     *prometheus.CounterVec
	retries      prometheus.Counter
	downloads    prometheus.Counter
	historyDepth prometheus.Gauge
}

// New creates metrics registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "robox_requests_total",
			Help: "HTTP requests issued, by method and status code",
		}, []string{"method", "status"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "robox_retries_total",
			Help: "Retry attempts beyond the first request",
		}),
		downloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "robox_downloads_total",
			Help: "Files downloaded to disk",
		}),
		historyDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "robox_history_depth",
			Help: "Locations currently tracked in navigation history",
		}),
	}
}

// ObserveRequest records a completed request.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// IncRetries records one retry attempt.
func (m *Metrics) IncRetries() { m.retries.Inc() }

// IncDownloads records one completed download.
func (m *Metrics) IncDownloads() { m.downloads.Inc() }

// SetHistoryDepth records the current history size.
func (m *Metrics) SetHistoryDepth(n int) { m.historyDepth.Set(float64(n)) }
