package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache layers.
const (
	LayerRedis  = "redis"
	LayerSearch = "search"
)

// Collector holds the movie-service Prometheus metrics. A nil Collector
// records nothing.
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	dedupResults *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	activityEvents *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewCollector registers the metrics on registry.
func NewCollector(registry *prometheus.Registry) *Collector {
	return &Collector{
		upstreamRequests: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_tmdb_requests_total",
				Help: "Total number of TMDB round trips",
			},
			[]string{"endpoint", "outcome"},
		),
		upstreamDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cinema_tmdb_request_duration_seconds",
				Help:    "Duration of TMDB round trips in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		dedupResults: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_dedup_results_total",
				Help: "Results delivered by the request deduplication group",
			},
			[]string{"shared"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"layer", "resource"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"layer", "resource"},
		),
		activityEvents: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cinema_activity_events_total",
				Help: "Activity events published and consumed",
			},
			[]string{"kind", "direction"},
		),
		registry: registry,
	}
}

// RecordUpstream records one TMDB round trip.
func (c *Collector) RecordUpstream(endpoint string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordDedup counts one delivered result of the dedup group.
func (c *Collector) RecordDedup(_ string, shared bool) {
	if c == nil {
		return
	}
	if shared {
		c.dedupResults.WithLabelValues("true").Inc()
		return
	}
	c.dedupResults.WithLabelValues("false").Inc()
}

func (c *Collector) RecordCache(layer, resource string, hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cacheHits.WithLabelValues(layer, resource).Inc()
		return
	}
	c.cacheMisses.WithLabelValues(layer, resource).Inc()
}

func (c *Collector) RecordPublished(kind string) {
	if c == nil {
		return
	}
	c.activityEvents.WithLabelValues(kind, "published").Inc()
}

func (c *Collector) RecordConsumed(kind string) {
	if c == nil {
		return
	}
	c.activityEvents.WithLabelValues(kind, "consumed").Inc()
}

// WatchSearchCacheSize exports size() as the search cache entry gauge.
func (c *Collector) WatchSearchCacheSize(size func() int) {
	if c == nil {
		return
	}
	promauto.With(c.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "cinema_search_cache_entries",
			Help: "Current number of entries in the search cache",
		},
		func() float64 { return float64(size()) },
	)
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
