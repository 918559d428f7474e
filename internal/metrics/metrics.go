// Package metrics holds the process-wide Prometheus collectors of serve mode:
// admin API traffic, crawl dispatch and fetch throttling.
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

const namespace = "rollcall"

var (
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	crawlRequests *prometheus.CounterVec
	activeRuns    prometheus.Gauge
	queueDepth    prometheus.Gauge
	rateLimitWait *prometheus.HistogramVec

	registerOnce sync.Once
)

var (
	latencyBuckets   = []float64{0.005, 0.025, 0.1, 0.25, 1, 2.5, 10}
	rateLimitBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
)

// Init registers the collectors with the default registry. Later calls do
// nothing.
func Init() {
	registerOnce.Do(func() {
		httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Admin API requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"})
		httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Admin API latency by method and route pattern.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route"})
		crawlRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_requests_total",
			Help:      "Crawl requests by chamber and outcome (queued, rejected, succeeded, failed).",
		}, []string{"chamber", "result"})
		activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatcher_active_runs",
			Help:      "Crawl requests currently executing; never exceeds one.",
		})
		queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crawl_queue_depth",
			Help:      "Crawl requests waiting in the queue.",
		})
		rateLimitWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_rate_limit_delay_seconds",
			Help:      "Time fetches spent waiting on the per-host rate limiter.",
			Buckets:   rateLimitBuckets,
		}, []string{"host"})
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one admin API request.
func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCrawlRequest counts one crawl request transition.
func ObserveCrawlRequest(chamber, result string) {
	crawlRequests.WithLabelValues(chamber, result).Inc()
}

// IncActiveRuns marks a crawl request as executing.
func IncActiveRuns() { activeRuns.Inc() }

// DecActiveRuns marks a crawl request as finished.
func DecActiveRuns() { activeRuns.Dec() }

// SetQueueDepth records the number of waiting crawl requests.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// ObserveRateLimitDelay records how long a fetch to host waited for a token.
func ObserveRateLimitDelay(host string, d time.Duration) {
	rateLimitWait.WithLabelValues(host).Observe(d.Seconds())
}
