// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package services provides suture.Service wrappers for Cinematch's long-running
components.

  - HTTPServerService: runs *http.Server, shutting down gracefully with its
    own timeout when the supervisor context is canceled.
  - ReloadService: rebuilds the served snapshot on a ticker and on manual
    triggers. Manual triggers are spaced by a golang.org/x/time/rate limiter
    and every rebuild runs through a sony/gobreaker circuit breaker; its
    state is exported as the reload_breaker_state gauge.

Each wrapper implements String() so supervisor events name it.
*/
package services
