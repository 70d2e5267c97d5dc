// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package config provides layered configuration loading for Cinematch.

# Configuration Sources

Configuration is assembled with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/cinematch/config.yaml)
 3. Environment variables (explicit allow-list, see envMappings)

# Sections

  - ServerConfig: HTTP listener, timeouts, CORS origins
  - DataConfig: movie and rating sources, loader backend, duplicate policy
  - SimilarityConfig: MIN_COMMON_RATERS, neighbor list size K, build workers
  - RecommendConfig: result cache and per-request timeout
  - IndexCacheConfig: Badger-backed persistence of built similarity indexes
  - ReloadConfig: periodic snapshot rebuild and its circuit breaker
  - LoggingConfig: zerolog level, format, caller info

# Environment Variables

Data:
  - MOVIES_PATH: movie table CSV (default: data/movies.csv)
  - RATINGS_PATH: rating table CSV (default: data/ratings.csv)
  - DATA_LOADER: csv or duckdb (default: csv)
  - DATA_DUPLICATES: reject or last (default: reject)

Similarity:
  - SIMILARITY_MIN_COMMON_RATERS: co-rater threshold (default: 5)
  - SIMILARITY_NEIGHBORS: neighbors kept per movie (default: 50)
  - SIMILARITY_WORKERS: build parallelism, 0 = runtime.NumCPU() (default: 0)
  - SIMILARITY_BUILD_TIMEOUT: startup build deadline (default: 30m)

Server and logging:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, CORS_ORIGINS
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
