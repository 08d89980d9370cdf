// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refresh cycles
	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehub_refresh_cycles_total",
			Help: "Refresh cycles by mode and outcome",
		},
		[]string{"mode", "outcome"}, // outcome: published, failed, unpublished
	)

	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagehub_refresh_duration_seconds",
			Help:    "Wall time of one refresh cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 180},
		},
		[]string{"mode"},
	)

	// Sources
	SourceRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagehub_source_records",
			Help: "Records contributed by a source in its most recent fetch",
		},
		[]string{"source"},
	)

	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehub_source_failures_total",
			Help: "Source fetches that returned an error or panicked",
		},
		[]string{"source"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagehub_source_fetch_duration_seconds",
			Help:    "Duration of one source fetch",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	// Cache
	CachePerformances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagehub_cache_performances",
			Help: "Performances in the published snapshot",
		},
	)

	CachePublishedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagehub_cache_published_timestamp_seconds",
			Help: "Unix time the current snapshot was computed",
		},
	)

	CacheServes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehub_cache_serves_total",
			Help: "List requests by how they were answered",
		},
		[]string{"result"}, // fresh, recomputed, stale_fallback
	)

	// Merge
	MergeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehub_merge_collisions_total",
			Help: "Records merged into an existing fingerprint",
		},
	)

	MergeEmptyNames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagehub_merge_empty_names_total",
			Help: "Records whose name normalized to the empty key",
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagehub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehub_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehub_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Sync feed
	SyncClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagehub_sync_clients",
			Help: "Connected refresh-event subscribers",
		},
		[]string{"transport"}, // tcp, ws
	)
)
