// Package metrics exposes the launch server's Prometheus instrumentation.
// When disabled in configuration nothing is registered and every observe
// call is a no-op.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry

	sessionsActive prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	authFailures   prometheus.Counter
	rehashDuration prometheus.Histogram
	filesServed    prometheus.Counter
)

// Init creates the registry and all collectors. Safe to call once at startup.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if registry != nil {
		return
	}
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessionsActive = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "launchserver_sessions_active",
		Help: "Number of connected launcher sessions",
	})
	requestsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "launchserver_requests_total",
		Help: "Session protocol requests by message type and outcome",
	}, []string{"message", "outcome"})
	authFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "launchserver_auth_failures_total",
		Help: "Rejected login attempts",
	})
	rehashDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "launchserver_rehash_duration_seconds",
		Help:    "Duration of full or filtered rehash runs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
	filesServed = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "launchserver_files_served_total",
		Help: "Static content files served over /files",
	})
}

// IsEnabled reports whether Init has run.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return registry != nil
}

// Handler returns the /metrics HTTP handler, or nil when disabled.
func Handler() http.Handler {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// SessionOpened increments the active session gauge.
func SessionOpened() {
	if sessionsActive != nil {
		sessionsActive.Inc()
	}
}

// SessionClosed decrements the active session gauge.
func SessionClosed() {
	if sessionsActive != nil {
		sessionsActive.Dec()
	}
}

// ObserveRequest counts one protocol request.
func ObserveRequest(message, outcome string) {
	if requestsTotal != nil {
		requestsTotal.WithLabelValues(message, outcome).Inc()
	}
}

// ObserveAuthFailure counts one rejected login.
func ObserveAuthFailure() {
	if authFailures != nil {
		authFailures.Inc()
	}
}

// ObserveRehash records the duration of a rehash run.
func ObserveRehash(d time.Duration) {
	if rehashDuration != nil {
		rehashDuration.Observe(d.Seconds())
	}
}

// ObserveFileServed counts one static file download.
func ObserveFileServed() {
	if filesServed != nil {
		filesServed.Inc()
	}
}
