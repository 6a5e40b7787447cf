// Package metrics exposes Prometheus collectors for the archive service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	archivesTotal              *prometheus.CounterVec
	comparesTotal              *prometheus.CounterVec
	fetchFailuresTotal         *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		archivesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkarchive_archives_total",
				Help: "Total number of archive attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		comparesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkarchive_compares_total",
				Help: "Total number of compare operations, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkarchive_fetch_failures_total",
				Help: "Total number of outbound fetch failures, labeled by reason.",
			},
			[]string{"reason"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkarchive_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkarchive_http_request_duration_seconds",
				Help:    "HTTP request latency, labeled by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveArchive increments the archive counter for the given outcome.
func ObserveArchive(outcome string) {
	Init()
	archivesTotal.WithLabelValues(outcome).Inc()
}

// ObserveCompare increments the compare counter for the given outcome.
func ObserveCompare(outcome string) {
	Init()
	comparesTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchFailure increments the fetch failure counter for a reason.
func ObserveFetchFailure(reason string) {
	Init()
	fetchFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
