// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes. Every recommendation request ends in exactly one.
const (
	OutcomeCompleted           = "completed"
	OutcomeInsufficientRatings = "insufficient_ratings"
	OutcomeUnknownMovie        = "unknown_movie"
	OutcomeInvalidQuery        = "invalid_query"
	OutcomeUnavailable         = "unavailable"
	OutcomeCanceled            = "canceled"
	OutcomeInternalError       = "internal_error"
)

// Snapshot build stages.
const (
	StageLoad  = "load"
	StageIndex = "index"
	StageTotal = "total"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Recommendation requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Time spent validating, predicting and ranking a recommendation request",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of recommendations returned per completed request",
			Buckets: []float64{0, 1, 2, 5, 8, 10},
		},
	)

	PredictionClamped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_clamped_total",
			Help: "Predictions whose raw score fell outside the rating scale and was clamped",
		},
	)

	RecommendCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cache_requests_total",
			Help: "Recommendation result cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Snapshot Metrics
	SnapshotBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_builds_total",
			Help: "Snapshot build attempts",
		},
		[]string{"trigger", "result"}, // trigger: startup, scheduled, manual
	)

	SnapshotStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapshot_stage_duration_seconds",
			Help:    "Duration of snapshot build stages",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage"},
	)

	SnapshotMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_movies",
			Help: "Movies in the serving snapshot",
		},
	)

	SnapshotUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_users",
			Help: "Distinct raters in the serving snapshot",
		},
	)

	SnapshotRatings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_ratings",
			Help: "Ratings in the serving snapshot",
		},
	)

	SimilarityEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_entries",
			Help: "Retained neighbor entries in the serving similarity index",
		},
	)

	SnapshotLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_loaded_timestamp_seconds",
			Help: "Unix time the serving snapshot was installed",
		},
	)

	IndexCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_cache_lookups_total",
			Help: "Persisted similarity index lookups",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	ReloadBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reload_breaker_state",
			Help: "Reload circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the terminal outcome of one request.
// results is only observed for completed requests.
func RecordRecommendation(outcome string, duration time.Duration, results int) {
	RecommendRequests.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
	if outcome == OutcomeCompleted {
		RecommendResults.Observe(float64(results))
	}
}

// RecordClamped adds n clamped predictions.
func RecordClamped(n int) {
	if n > 0 {
		PredictionClamped.Add(float64(n))
	}
}

// RecordCacheLookup records a result cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RecommendCacheRequests.WithLabelValues("hit").Inc()
	} else {
		RecommendCacheRequests.WithLabelValues("miss").Inc()
	}
}

// RecordSnapshotStage observes the duration of one build stage.
func RecordSnapshotStage(stage string, duration time.Duration) {
	SnapshotStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordSnapshotBuild counts a build attempt.
func RecordSnapshotBuild(trigger string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SnapshotBuilds.WithLabelValues(trigger, result).Inc()
}

// SetSnapshotInfo publishes the size of a freshly installed snapshot.
func SetSnapshotInfo(movies, users, ratings, entries int, installedAt time.Time) {
	SnapshotMovies.Set(float64(movies))
	SnapshotUsers.Set(float64(users))
	SnapshotRatings.Set(float64(ratings))
	SimilarityEntries.Set(float64(entries))
	SnapshotLoadedTimestamp.Set(float64(installedAt.Unix()))
}

// RecordIndexCacheLookup records a persisted index lookup: "hit", "miss"
// or "error".
func RecordIndexCacheLookup(result string) {
	IndexCacheLookups.WithLabelValues(result).Inc()
}

// SetReloadBreakerState publishes the breaker state as a number.
func SetReloadBreakerState(state float64) {
	ReloadBreakerState.Set(state)
}
