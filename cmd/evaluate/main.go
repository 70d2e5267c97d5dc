// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Command evaluate reports offline Precision@K for the configured corpus
// and similarity settings. It reads the same configuration as the server
// (config.yaml, environment) plus the evaluate section:
//
//	EVAL_K=10 EVAL_SAMPLE_USERS=1000 EVAL_SEED=42 ./evaluate
//
// The report is written to stdout as JSON; progress goes to the log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/evaluate"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/similarity"
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
	logger := logging.WithComponent("evaluate")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	policy, err := catalog.ParseDuplicatePolicy(cfg.Data.Duplicates)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid data configuration")
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Data.LoadTimeout)
	store, err := catalog.Load(loadCtx, catalog.Sources{
		MoviesPath:  cfg.Data.MoviesPath,
		RatingsPath: cfg.Data.RatingsPath,
	}, catalog.Options{
		Backend:    catalog.Backend(cfg.Data.Loader),
		Duplicates: policy,
	})
	cancelLoad()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load corpus")
	}
	logger.Info().
		Int("movies", store.NumMovies()).
		Int("users", store.NumUsers()).
		Int("ratings", store.NumRatings()).
		Msg("Corpus loaded")

	runCtx, cancelRun := context.WithTimeout(ctx, cfg.Similarity.BuildTimeout)
	defer cancelRun()

	report, err := evaluate.Run(runCtx, store, evaluate.Config{
		K:            cfg.Evaluate.K,
		Threshold:    cfg.Evaluate.Threshold,
		SampleUsers:  cfg.Evaluate.SampleUsers,
		TestFraction: cfg.Evaluate.TestFraction,
		Seed:         cfg.Evaluate.Seed,
		Similarity: similarity.Config{
			MinCommonRaters: cfg.Similarity.MinCommonRaters,
			Neighbors:       cfg.Similarity.Neighbors,
			Workers:         cfg.Similarity.Workers,
		},
		Workers: cfg.Similarity.Workers,
	}, logger)
	if err != nil {
		cancelRun()
		logging.Fatal().Err(err).Msg("Evaluation failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logging.Fatal().Err(err).Msg("Failed to write report")
	}
}
