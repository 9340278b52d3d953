// Package metrics holds the Prometheus collectors for fetching, graph building and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcome labels.
const (
	FetchOK     = "ok"
	FetchEmpty  = "empty"
	FetchError  = "error"
	FetchCached = "cached"
)

// Collector holds all Prometheus metrics for the application.
// All methods are safe to call on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	// Fetch metrics
	FetchRequests     *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	DocumentsFetched  *prometheus.CounterVec
	DocumentsRejected *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Graph metrics
	Runs             prometheus.Counter
	DocumentsSkipped prometheus.Counter
	GraphNodes       prometheus.Histogram
	GraphEdges       prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry under the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	sizeBuckets := []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000}

	c := &Collector{
		registry: registry,
		FetchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_requests_total",
				Help:      "Total number of source fetches by outcome",
			},
			[]string{"source", "status"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Source fetch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		DocumentsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_fetched_total",
				Help:      "Total number of documents accepted from each source",
			},
			[]string{"source"},
		),
		DocumentsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_rejected_total",
				Help:      "Total number of documents dropped by validation",
			},
			[]string{"source"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
			},
			[]string{"source"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of fetch cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of fetch cache misses",
			},
		),
		Runs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of graph runs",
			},
		),
		DocumentsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_skipped_total",
				Help:      "Total number of documents that yielded no keyword phrases",
			},
		),
		GraphNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes per built graph",
				Buckets:   sizeBuckets,
			},
		),
		GraphEdges: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of edges per built graph",
				Buckets:   sizeBuckets,
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.FetchRequests,
		c.FetchDuration,
		c.DocumentsFetched,
		c.DocumentsRejected,
		c.BreakerState,
		c.CacheHits,
		c.CacheMisses,
		c.Runs,
		c.DocumentsSkipped,
		c.GraphNodes,
		c.GraphEdges,
		c.HTTPRequests,
		c.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}

	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordFetch records one source fetch.
func (c *Collector) RecordFetch(source, status string, duration time.Duration) {
	if c == nil {
		return
	}

	c.FetchRequests.WithLabelValues(source, status).Inc()

	if status != FetchCached {
		c.FetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// RecordDocuments records accepted and rejected document counts for a source.
func (c *Collector) RecordDocuments(source string, accepted, rejected int) {
	if c == nil {
		return
	}

	c.DocumentsFetched.WithLabelValues(source).Add(float64(accepted))
	c.DocumentsRejected.WithLabelValues(source).Add(float64(rejected))
}

// RecordCache records a cache lookup.
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}

	if hit {
		c.CacheHits.Inc()
	} else {
		c.CacheMisses.Inc()
	}
}

// RecordBreakerState records a breaker transition. state follows gobreaker's numbering.
func (c *Collector) RecordBreakerState(source string, state int) {
	if c == nil {
		return
	}

	c.BreakerState.WithLabelValues(source).Set(float64(state))
}

// RecordRun records one graph build.
func (c *Collector) RecordRun(nodes, edges, skipped int) {
	if c == nil {
		return
	}

	c.Runs.Inc()
	c.GraphNodes.Observe(float64(nodes))
	c.GraphEdges.Observe(float64(edges))
	c.DocumentsSkipped.Add(float64(skipped))
}

// RecordHTTP records one HTTP request.
func (c *Collector) RecordHTTP(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}

	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
