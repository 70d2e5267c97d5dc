// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Data       DataConfig       `koanf:"data"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	IndexCache IndexCacheConfig `koanf:"index_cache"`
	Reload     ReloadConfig     `koanf:"reload"`
	Evaluate   EvaluateConfig   `koanf:"evaluate"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataConfig describes where the movie and rating tables come from.
type DataConfig struct {
	// MoviesPath is the movie table (movieId,title,genres[,year]).
	MoviesPath string `koanf:"movies_path"`

	// RatingsPath is the rating table (userId,movieId,rating,timestamp).
	RatingsPath string `koanf:"ratings_path"`

	// Loader selects the ingest backend: "csv" (streaming encoding/csv) or
	// "duckdb" (columnar read_csv scan, faster for the 25M corpus).
	Loader string `koanf:"loader"`

	// Duplicates is the policy for repeated (user, movie) ratings:
	// "reject" fails the load, "last" keeps the last row in file order.
	Duplicates string `koanf:"duplicates"`

	// LoadTimeout bounds reading and validating both tables.
	LoadTimeout time.Duration `koanf:"load_timeout"`
}

// SimilarityConfig holds the item-item index policy knobs.
type SimilarityConfig struct {
	// MinCommonRaters is the co-rater threshold below which a pair is excluded.
	MinCommonRaters int `koanf:"min_common_raters"`

	// Neighbors is K, the number of neighbors retained per movie.
	Neighbors int `koanf:"neighbors"`

	// Workers bounds build parallelism (0 = runtime.NumCPU()).
	Workers int `koanf:"workers"`

	// BuildTimeout bounds the similarity build.
	BuildTimeout time.Duration `koanf:"build_timeout"`
}

// RecommendConfig holds request-path settings.
type RecommendConfig struct {
	// CacheSize is the number of cached recommendation results (0 disables).
	CacheSize int `koanf:"cache_size"`

	// CacheTTL is how long a cached result stays valid.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RequestTimeout bounds one HTTP recommend call.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// IndexCacheConfig controls persistence of built similarity indexes.
type IndexCacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// ReloadConfig controls snapshot rebuilds after startup.
type ReloadConfig struct {
	// Interval between automatic rebuilds (0 disables the reload service).
	Interval time.Duration `koanf:"interval"`

	// MinGap is the minimum time between manually triggered reloads.
	MinGap time.Duration `koanf:"min_gap"`

	// FailureThreshold is the number of consecutive failed reloads that
	// opens the circuit breaker.
	FailureThreshold uint32 `koanf:"failure_threshold"`

	// OpenTimeout is how long the breaker stays open before a trial reload.
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// EvaluateConfig drives the offline Precision@K evaluation (cmd/evaluate).
type EvaluateConfig struct {
	// K is the list length scored; at most the service's result cap.
	K int `koanf:"k"`

	// Threshold is the holdout score at which a movie counts as liked.
	Threshold float64 `koanf:"threshold"`

	// SampleUsers is how many users are drawn (0 = every user).
	SampleUsers int `koanf:"sample_users"`

	// TestFraction of each user's ratings is held out.
	TestFraction float64 `koanf:"test_fraction"`

	// Seed makes sampling and splits reproducible.
	Seed int64 `koanf:"seed"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in that order of precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
