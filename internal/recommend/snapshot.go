// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/indexcache"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// Snapshot build triggers, used as a metrics label.
const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Snapshot is an immutable store plus the similarity index derived from
// it. ID is the index build ID, which also identifies the store.
type Snapshot struct {
	ID          string
	Store       *catalog.Store
	Index       *similarity.Index
	InstalledAt time.Time
}

// NewSnapshot pairs store with index after checking the index was derived
// from it.
func NewSnapshot(store *catalog.Store, index *similarity.Index) (*Snapshot, error) {
	if store == nil || index == nil {
		return nil, errors.New("snapshot requires a store and an index")
	}
	if err := index.Verify(store); err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:    index.BuildID(),
		Store: store,
		Index: index,
	}, nil
}

// IndexCache persists similarity indexes between runs.
// *indexcache.Cache implements it.
type IndexCache interface {
	Get(ctx context.Context, storeID string, cfg similarity.Config) (*similarity.Index, error)
	Put(ctx context.Context, ix *similarity.Index) error
	Prune(ctx context.Context, keep string) (int, error)
}

// BuilderConfig configures snapshot builds.
type BuilderConfig struct {
	Sources      catalog.Sources
	Load         catalog.Options
	Similarity   similarity.Config
	LoadTimeout  time.Duration
	BuildTimeout time.Duration
}

// Builder loads the sources and builds (or restores) the index.
type Builder struct {
	cfg    BuilderConfig
	cache  IndexCache
	logger zerolog.Logger
}

// NewBuilder creates a Builder. cache may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBuilder(cfg BuilderConfig, cache IndexCache, logger zerolog.Logger) *Builder {
	return &Builder{
		cfg:    cfg,
		cache:  cache,
		logger: logger.With().Str("component", "snapshot").Logger(),
	}
}

// Build produces a complete snapshot. Nothing is returned on failure.
func (b *Builder) Build(ctx context.Context, trigger string) (*Snapshot, error) {
	start := time.Now()
	log := b.logger.With().Str("trigger", trigger).Logger()

	log.Info().
		Str("movies_path", b.cfg.Sources.MoviesPath).
		Str("ratings_path", b.cfg.Sources.RatingsPath).
		Str("loader", string(b.cfg.Load.Backend)).
		Msg("loading catalog")

	store, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordSnapshotStage(metrics.StageLoad, time.Since(start))

	log.Info().
		Str("store_id", store.BuildID()).
		Int("movies", store.NumMovies()).
		Int("users", store.NumUsers()).
		Int("ratings", store.NumRatings()).
		Dur("elapsed", time.Since(start)).
		Msg("catalog loaded")

	indexStart := time.Now()
	index, err := b.index(ctx, store, log)
	if err != nil {
		return nil, err
	}
	metrics.RecordSnapshotStage(metrics.StageIndex, time.Since(indexStart))

	snap, err := NewSnapshot(store, index)
	if err != nil {
		return nil, fmt.Errorf("assemble snapshot: %w", err)
	}
	metrics.RecordSnapshotStage(metrics.StageTotal, time.Since(start))

	stats := index.Stats()
	log.Info().
		Str("snapshot_id", snap.ID).
		Int("movies_indexed", stats.MoviesIndexed).
		Int("entries", stats.Entries).
		Dur("elapsed", time.Since(start)).
		Msg("snapshot built")

	return snap, nil
}

// load reads the catalog under the load timeout.
func (b *Builder) load(ctx context.Context) (*catalog.Store, error) {
	if b.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.LoadTimeout)
		defer cancel()
	}
	store, err := catalog.Load(ctx, b.cfg.Sources, b.cfg.Load)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return store, nil
}

// index restores the index from the cache or builds it under the build
// timeout. Cache failures are logged and never fail the build.
func (b *Builder) index(ctx context.Context, store *catalog.Store, log zerolog.Logger) (*similarity.Index, error) {
	cfg := b.cfg.Similarity

	if b.cache != nil {
		ix, err := b.cache.Get(ctx, store.BuildID(), cfg)
		switch {
		case err == nil:
			metrics.RecordIndexCacheLookup("hit")
			log.Info().Str("index_id", ix.BuildID()).Msg("similarity index restored from cache")
			return ix, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			if errors.Is(err, indexcache.ErrNotFound) {
				metrics.RecordIndexCacheLookup("miss")
			} else {
				metrics.RecordIndexCacheLookup("error")
				log.Warn().Err(err).Msg("index cache lookup failed, rebuilding")
			}
		}
	}

	buildCtx := ctx
	if b.cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, b.cfg.BuildTimeout)
		defer cancel()
	}

	log.Info().
		Int("min_common_raters", cfg.MinCommonRaters).
		Int("neighbors", cfg.Neighbors).
		Int("workers", cfg.Workers).
		Msg("building similarity index")

	ix, err := similarity.Build(buildCtx, store, cfg)
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if err := b.cache.Put(ctx, ix); err != nil {
			log.Warn().Err(err).Msg("failed to persist similarity index")
		} else if removed, err := b.cache.Prune(ctx, ix.BuildID()); err != nil {
			log.Warn().Err(err).Msg("failed to prune index cache")
		} else if removed > 0 {
			log.Debug().Int("removed", removed).Msg("pruned stale cached indexes")
		}
	}

	return ix, nil
}
