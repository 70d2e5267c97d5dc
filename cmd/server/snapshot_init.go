// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/indexcache"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// openIndexCache opens the Badger index cache, or returns nil when it is
// disabled.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func openIndexCache(cfg *config.Config, logger zerolog.Logger) (*indexcache.Cache, error) {
	if !cfg.IndexCache.Enabled {
		logger.Info().Msg("Index cache disabled, every snapshot build computes the index")
		return nil, nil
	}
	cache, err := indexcache.Open(indexcache.Config{Path: cfg.IndexCache.Path}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.IndexCache.Path).Msg("Index cache opened")
	return cache, nil
}

func closeIndexCache(cache *indexcache.Cache) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing index cache")
	}
}

// newBuilder maps configuration onto a snapshot builder.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func newBuilder(cfg *config.Config, cache *indexcache.Cache, logger zerolog.Logger) (*recommend.Builder, error) {
	policy, err := catalog.ParseDuplicatePolicy(cfg.Data.Duplicates)
	if err != nil {
		return nil, err
	}

	// A nil *Cache must not become a non-nil interface.
	var ic recommend.IndexCache
	if cache != nil {
		ic = cache
	}

	return recommend.NewBuilder(recommend.BuilderConfig{
		Sources: catalog.Sources{
			MoviesPath:  cfg.Data.MoviesPath,
			RatingsPath: cfg.Data.RatingsPath,
		},
		Load: catalog.Options{
			Backend:    catalog.Backend(cfg.Data.Loader),
			Duplicates: policy,
		},
		Similarity: similarity.Config{
			MinCommonRaters: cfg.Similarity.MinCommonRaters,
			Neighbors:       cfg.Similarity.Neighbors,
			Workers:         cfg.Similarity.Workers,
		},
		LoadTimeout:  cfg.Data.LoadTimeout,
		BuildTimeout: cfg.Similarity.BuildTimeout,
	}, ic, logger), nil
}

// buildStartupSnapshot builds and installs the first snapshot. The overall
// deadline covers loading and the index build.
func buildStartupSnapshot(svc *recommend.Service, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout+cfg.Similarity.BuildTimeout)
	defer cancel()

	snap, err := svc.Reload(ctx, recommend.TriggerStartup)
	if err != nil {
		return fmt.Errorf("build startup snapshot: %w", err)
	}

	h := svc.Health()
	logging.Info().
		Str("snapshot_id", snap.ID).
		Int("movies", h.Movies).
		Int("users", h.Users).
		Int("ratings", h.Ratings).
		Int("similarity_entries", h.Entries).
		Msg("Snapshot installed, service ready")
	return nil
}
