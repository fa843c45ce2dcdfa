// Package metrics exposes Prometheus instrumentation for the recommender.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ranking
	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mustsee_ranking_duration_seconds",
			Help:    "Duration of ranking runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"time_range"},
	)

	RankingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mustsee_rankings_total",
			Help: "Ranking runs by outcome (success, no_match, error)",
		},
		[]string{"outcome"},
	)

	// Sessions
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mustsee_sessions_active",
			Help: "Sessions currently held in memory",
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mustsee_session_transitions_total",
			Help: "Session state transitions",
		},
		[]string{"from", "to"},
	)

	// Spotify API
	SpotifyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mustsee_spotify_requests_total",
			Help: "Spotify API responses by operation and status code",
		},
		[]string{"operation", "status"},
	)

	SpotifyRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mustsee_spotify_retries_total",
			Help: "Retried Spotify API attempts",
		},
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mustsee_spotify_circuit_breaker_state",
			Help: "Spotify circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Enrichment
	EnrichedActs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mustsee_enriched_acts_total",
			Help: "Catalog acts processed by enrichment, by outcome",
		},
		[]string{"outcome"},
	)

	// Worker pool
	JobsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mustsee_worker_jobs_dropped_total",
			Help: "Jobs rejected because the worker queue was full",
		},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mustsee_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveRanking records one ranking run.
func ObserveRanking(timeRange, outcome string, elapsed time.Duration) {
	RankingDuration.WithLabelValues(timeRange).Observe(elapsed.Seconds())
	RankingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSpotify records one Spotify API response. status 0 means the request
// never produced a response.
func ObserveSpotify(operation string, status int) {
	SpotifyRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
