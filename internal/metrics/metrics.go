// Package metrics exposes Prometheus counters for the caches, upstream
// fetches and calendar computations on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "freerooms"

var (
	Registry = prometheus.NewRegistry()

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result (hit, stale, miss)",
		},
		[]string{"cache", "result"},
	)
	CacheWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      "Failed cache writes by cache",
		},
		[]string{"cache"},
	)
	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Upstream calendar fetches by result",
		},
		[]string{"result"},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Duration of upstream calendar fetches",
			Buckets:   prometheus.DefBuckets,
		},
	)
	ComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Duration of calendar computations that missed the combination cache",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
)

func init() {
	Registry.MustRegister(CacheLookups, CacheWriteErrors, Fetches, FetchDuration, ComputeDuration)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
