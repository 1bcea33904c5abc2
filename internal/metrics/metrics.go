// Package metrics exposes pipeline and cache counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
)

// Namespace prefixes every metric name.
const Namespace = "postmetrics"

// Ensure Collector implements the observer interfaces.
var (
	_ driven.CacheObserver  = (*Collector)(nil)
	_ driven.IngestObserver = (*Collector)(nil)
)

// Collector owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	cacheEvents    *prometheus.CounterVec
	invalidations  prometheus.Counter
	ingestRows     *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	serviceInfo    *prometheus.GaugeVec
}

// NewCollector creates and registers all metrics.
func NewCollector(version string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_events_total",
			Help:      "Query cache events by type and view",
		},
		[]string{"event", "view"},
	)
	c.invalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_invalidations_total",
			Help:      "Query cache invalidations after writes",
		},
	)
	c.ingestRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_rows_total",
			Help:      "Ingested rows by source format and outcome",
		},
		[]string{"format", "outcome"},
	)
	c.ingestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of single-file ingests in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"format"},
	)
	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	c.serviceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version"},
	)

	c.registry.MustRegister(
		c.cacheEvents,
		c.invalidations,
		c.ingestRows,
		c.ingestDuration,
		c.httpRequests,
		c.httpDuration,
		c.serviceInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.serviceInfo.WithLabelValues(version).Set(1)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// view collapses a cache key to a low-cardinality label.
func view(key string) string {
	if strings.Contains(key, "|") {
		return "filtered"
	}
	return "all"
}

// OnHit counts a cache hit.
func (c *Collector) OnHit(key string) {
	c.cacheEvents.WithLabelValues("hit", view(key)).Inc()
}

// OnMiss counts a cache miss.
func (c *Collector) OnMiss(key string) {
	c.cacheEvents.WithLabelValues("miss", view(key)).Inc()
}

// OnStore counts a published load.
func (c *Collector) OnStore(key string) {
	c.cacheEvents.WithLabelValues("store", view(key)).Inc()
}

// OnDiscard counts a load dropped because a write landed while it ran.
func (c *Collector) OnDiscard(key string) {
	c.cacheEvents.WithLabelValues("discard", view(key)).Inc()
}

// OnInvalidate counts an invalidation.
func (c *Collector) OnInvalidate() {
	c.invalidations.Inc()
}

// ObserveRows adds n rows with the given outcome.
func (c *Collector) ObserveRows(format, outcome string, n int) {
	if n <= 0 {
		return
	}
	c.ingestRows.WithLabelValues(format, outcome).Add(float64(n))
}

// ObserveDuration records the duration of one file ingest.
func (c *Collector) ObserveDuration(format string, seconds float64) {
	c.ingestDuration.WithLabelValues(format).Observe(seconds)
}

// RouteFunc resolves the route pattern of a served request.
type RouteFunc func(r *http.Request) string

// Middleware records request counts and durations per route.
func (c *Collector) Middleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			pattern := route(r)
			if pattern == "" {
				pattern = "unknown"
			}
			c.httpRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Inc()
			c.httpDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
