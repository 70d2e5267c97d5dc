// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package api exposes the recommender over HTTP using the chi router.

# Endpoints

	POST /api/v1/recommend              recommendations for a rating list
	GET  /api/v1/movies/{id}            one catalog entry
	GET  /api/v1/movies/{id}/similar    "more like this" (?k=1..100)
	GET  /api/v1/health                 snapshot summary
	GET  /api/v1/health/live            liveness probe
	GET  /api/v1/health/ready           readiness probe (503 until a snapshot is installed)
	GET  /api/v1/stats                  request counters and persisted indexes
	POST /api/v1/admin/reload           queue a snapshot reload
	GET  /metrics                       Prometheus exposition
	GET  /swagger/*                     Swagger UI and /swagger/doc.json

# Response Format

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "UNKNOWN_MOVIE", "message": "unknown movie 42", "details": {"movie_id": 42}}}

# Error Codes

  - INSUFFICIENT_RATINGS (400): fewer than six distinct movies
  - UNKNOWN_MOVIE (400, or 404 on /movies/{id}): a movie id not in the catalog
  - VALIDATION_ERROR (400): malformed body or parameter, off-scale score
  - TOO_MANY_REQUESTS (429): reload requested too soon
  - CONFLICT (409): reload already queued or running
  - SERVICE_UNAVAILABLE (503): no snapshot installed, request timed out or canceled
  - INTERNAL_ERROR (500): anything else; details are logged, not returned
*/
package api
