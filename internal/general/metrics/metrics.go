// Package metrics collects Prometheus metrics for backend calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the API client reports every call to.
type Recorder interface {
	RecordRequest(endpoint, outcome string, duration time.Duration)
	RecordSessionExpired()
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	sessionExpired prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Backend calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "Backend call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sessionExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_session_expired_total",
			Help: "Sessions reset after a 401 from the backend.",
		}),
	}

	reg.MustRegister(c.requests, c.latency, c.sessionExpired)
	return c
}

func (c *Collector) RecordRequest(endpoint, outcome string, duration time.Duration) {
	c.requests.WithLabelValues(endpoint, outcome).Inc()
	c.latency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordSessionExpired() {
	c.sessionExpired.Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, time.Duration) {}
func (Nop) RecordSessionExpired() {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
