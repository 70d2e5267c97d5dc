// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package middleware provides HTTP middleware shared by the API router.
//
//   - RequestID: accepts or generates X-Request-ID and seeds the logging
//     context with request and correlation IDs.
//   - PrometheusMetrics: records request counts, latency and in-flight
//     requests, labelled by chi route pattern so path parameters do not
//     explode label cardinality.
//   - WithLogger: stores the component logger in the request context.
//   - RequestLogger: one structured access log line per request. 503
//     (not ready, timed out, client gone) is logged as a warning.
//
// All middleware use the func(http.Handler) http.Handler shape expected by
// chi's Use.
package middleware
