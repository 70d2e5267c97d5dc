// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cinematch/internal/api"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/supervisor"
	"github.com/tomtom215/cinematch/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logger.Info().
		Str("movies", cfg.Data.MoviesPath).
		Str("ratings", cfg.Data.RatingsPath).
		Str("loader", cfg.Data.Loader).
		Int("min_common_raters", cfg.Similarity.MinCommonRaters).
		Int("neighbors", cfg.Similarity.Neighbors).
		Msg("Starting Cinematch")

	cache, err := openIndexCache(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open index cache")
	}
	defer closeIndexCache(cache)

	builder, err := newBuilder(cfg, cache, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid data configuration")
	}

	svc := recommend.NewService(recommend.Config{
		CacheSize: cfg.Recommend.CacheSize,
		CacheTTL:  cfg.Recommend.CacheTTL,
	}, builder, logger)

	// The first snapshot is built before anything is served.
	if err := buildStartupSnapshot(svc, cfg); err != nil {
		closeIndexCache(cache)
		logging.Fatal().Err(err).Msg("Startup snapshot build failed")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		closeIndexCache(cache)
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	reloadSvc := services.NewReloadService(svc, services.ReloadServiceConfig{
		Interval:         cfg.Reload.Interval,
		MinGap:           cfg.Reload.MinGap,
		FailureThreshold: cfg.Reload.FailureThreshold,
		OpenTimeout:      cfg.Reload.OpenTimeout,
	}, logger)
	tree.AddEngineService(reloadSvc)

	handler := api.NewHandler(svc, reloadSvc, cfg.Recommend.RequestTimeout, logger)
	if cache != nil {
		handler.SetIndexCatalog(cache)
	}
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(api.RouterConfig{CORSOrigins: cfg.Server.CORSOrigins}, handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// ServeBackground delivers exactly one result and never closes the channel.
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, s := range unstopped {
			logger.Warn().Str("service", s.Name).Msg("Service failed to stop")
		}
	}

	logger.Info().Msg("Cinematch stopped")
}
