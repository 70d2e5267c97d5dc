// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/indexcache"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// Recommender is the service surface the handlers use;
// *recommend.Service implements it.
type Recommender interface {
	Recommend(ctx context.Context, ratings []catalog.MovieScore) (*recommend.Result, error)
	Similar(ctx context.Context, movie catalog.MovieID, k int) ([]recommend.SimilarMovie, string, error)
	Snapshot() *recommend.Snapshot
	Health() recommend.Health
	Stats() recommend.Stats
}

// ReloadTrigger queues a snapshot reload without waiting for it.
type ReloadTrigger interface {
	Trigger() error
}

// IndexCatalog lists persisted similarity indexes; *indexcache.Cache
// implements it.
type IndexCatalog interface {
	List(ctx context.Context) ([]indexcache.Metadata, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	svc            Recommender
	reload         ReloadTrigger
	indexes        IndexCatalog
	requestTimeout time.Duration
	startTime      time.Time
	logger         zerolog.Logger
}

// NewHandler creates a Handler. reload may be nil, which disables the
// admin reload endpoint.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(svc Recommender, reload ReloadTrigger, requestTimeout time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:            svc,
		reload:         reload,
		requestTimeout: requestTimeout,
		startTime:      time.Now(),
		logger:         logger.With().Str("component", "api").Logger(),
	}
}

// withTimeout bounds a request by the configured timeout.
func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.requestTimeout)
}

// SetIndexCatalog exposes the persisted indexes on /api/v1/stats.
func (h *Handler) SetIndexCatalog(c IndexCatalog) {
	h.indexes = c
}
