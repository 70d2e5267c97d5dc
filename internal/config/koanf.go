// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinematch/config.yaml",
	"/etc/cinematch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, the lowest configuration layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Data: DataConfig{
			MoviesPath:  "data/movies.csv",
			RatingsPath: "data/ratings.csv",
			Loader:      "csv",
			Duplicates:  "reject",
			LoadTimeout: 10 * time.Minute,
		},
		Similarity: SimilarityConfig{
			MinCommonRaters: 5,
			Neighbors:       50,
			Workers:         0, // 0 = use runtime.NumCPU()
			BuildTimeout:    30 * time.Minute,
		},
		Recommend: RecommendConfig{
			CacheSize:      1000,
			CacheTTL:       5 * time.Minute,
			RequestTimeout: 10 * time.Second,
		},
		IndexCache: IndexCacheConfig{
			Enabled: false,
			Path:    "/data/index",
		},
		Reload: ReloadConfig{
			Interval:         0, // disabled; snapshots rebuild only on demand
			MinGap:           time.Minute,
			FailureThreshold: 3,
			OpenTimeout:      10 * time.Minute,
		},
		Evaluate: EvaluateConfig{
			K:            10,
			Threshold:    4.0,
			SampleUsers:  1000,
			TestFraction: 0.4,
			Seed:         42,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config file (optional YAML)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",

	// Data sources
	"movies_path":       "data.movies_path",
	"ratings_path":      "data.ratings_path",
	"data_loader":       "data.loader",
	"data_duplicates":   "data.duplicates",
	"data_load_timeout": "data.load_timeout",

	// Similarity index
	"similarity_min_common_raters": "similarity.min_common_raters",
	"similarity_neighbors":         "similarity.neighbors",
	"similarity_workers":           "similarity.workers",
	"similarity_build_timeout":     "similarity.build_timeout",

	// Recommendation path
	"recommend_cache_size":      "recommend.cache_size",
	"recommend_cache_ttl":       "recommend.cache_ttl",
	"recommend_request_timeout": "recommend.request_timeout",

	// Index cache
	"index_cache_enabled": "index_cache.enabled",
	"index_cache_path":    "index_cache.path",

	// Reload
	"reload_interval":          "reload.interval",
	"reload_min_gap":           "reload.min_gap",
	"reload_failure_threshold": "reload.failure_threshold",
	"reload_open_timeout":      "reload.open_timeout",

	// Offline evaluation
	"eval_k":             "evaluate.k",
	"eval_threshold":     "evaluate.threshold",
	"eval_sample_users":  "evaluate.sample_users",
	"eval_test_fraction": "evaluate.test_fraction",
	"eval_seed":          "evaluate.seed",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
