package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cci_catalog_requests_total",
			Help: "Total number of opensearch catalog requests.",
		},
		[]string{"operation", "status"},
	)

	catalogRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cci_catalog_request_duration_seconds",
			Help:    "Duration of opensearch catalog requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"operation"},
	)

	chunkFetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cci_chunk_fetch_duration_seconds",
			Help:    "Duration of remote chunk fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"outcome"},
	)

	chunkFetchBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cci_chunk_fetch_bytes_total",
			Help: "Total bytes fetched from remote granules.",
		},
	)

	retryAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cci_retry_attempts_total",
			Help: "Total number of retried remote requests.",
		},
	)

	chunkCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cci_chunk_cache_results_total",
			Help: "Chunk cache results by outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cci_chunk_cache_op_duration_seconds",
			Help:    "Duration of chunk cache operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "ok"},
	)
)

func ObserveCatalogRequest(operation string, status int, durationSeconds float64) {
	catalogRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	catalogRequestDurationSeconds.WithLabelValues(operation).Observe(durationSeconds)
}

func ObserveChunkFetch(err error, bytes int, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	chunkFetchDurationSeconds.WithLabelValues(outcome).Observe(durationSeconds)
	if bytes > 0 {
		chunkFetchBytes.Add(float64(bytes))
	}
}

func IncRetryAttempt() {
	retryAttemptsTotal.Inc()
}

func IncChunkCacheHit(tier string) {
	chunkCacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncChunkCacheMiss(tier string) {
	chunkCacheResults.WithLabelValues(tier, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	ok := "true"
	if err != nil {
		ok = "false"
	}
	cacheOpDurationSeconds.WithLabelValues(op, ok).Observe(durationSeconds)
}
