// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package metrics defines the Prometheus instruments exported at /metrics.

Instruments are registered on the default registry at package init through
promauto. Callers use the Record* and Set* helpers rather than touching the
vectors directly so that label values stay within a fixed set.

# Available Metrics

HTTP:
  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests

Recommendation:
  - recommend_requests_total{outcome}
  - recommend_duration_seconds
  - recommend_results
  - prediction_clamped_total
  - recommend_cache_requests_total{result}

Snapshot:
  - snapshot_builds_total{trigger, result}
  - snapshot_stage_duration_seconds{stage}
  - snapshot_movies, snapshot_users, snapshot_ratings, similarity_entries
  - snapshot_loaded_timestamp_seconds
  - index_cache_lookups_total{result}
  - reload_breaker_state
*/
package metrics
