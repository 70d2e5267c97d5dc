// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validLoaders = map[string]bool{
	"csv":    true,
	"duckdb": true,
}

var validDuplicatePolicies = map[string]bool{
	"reject": true,
	"last":   true,
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateData(); err != nil {
		return err
	}
	if err := c.validateSimilarity(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateIndexCache(); err != nil {
		return err
	}
	if err := c.validateReload(); err != nil {
		return err
	}
	if err := c.validateEvaluate(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateData() error {
	if c.Data.MoviesPath == "" {
		return fmt.Errorf("MOVIES_PATH is required")
	}
	if c.Data.RatingsPath == "" {
		return fmt.Errorf("RATINGS_PATH is required")
	}
	if !validLoaders[c.Data.Loader] {
		return fmt.Errorf("DATA_LOADER must be one of: csv, duckdb (got %q)", c.Data.Loader)
	}
	if !validDuplicatePolicies[c.Data.Duplicates] {
		return fmt.Errorf("DATA_DUPLICATES must be one of: reject, last (got %q)", c.Data.Duplicates)
	}
	if c.Data.LoadTimeout <= 0 {
		return fmt.Errorf("DATA_LOAD_TIMEOUT must be positive, got %v", c.Data.LoadTimeout)
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if c.Similarity.MinCommonRaters < 1 {
		return fmt.Errorf("SIMILARITY_MIN_COMMON_RATERS must be at least 1, got %d", c.Similarity.MinCommonRaters)
	}
	if c.Similarity.Neighbors < 1 {
		return fmt.Errorf("SIMILARITY_NEIGHBORS must be at least 1, got %d", c.Similarity.Neighbors)
	}
	if c.Similarity.Workers < 0 {
		return fmt.Errorf("SIMILARITY_WORKERS must be non-negative, got %d", c.Similarity.Workers)
	}
	if c.Similarity.BuildTimeout <= 0 {
		return fmt.Errorf("SIMILARITY_BUILD_TIMEOUT must be positive, got %v", c.Similarity.BuildTimeout)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.CacheSize < 0 {
		return fmt.Errorf("RECOMMEND_CACHE_SIZE must be non-negative, got %d", c.Recommend.CacheSize)
	}
	if c.Recommend.CacheSize > 0 && c.Recommend.CacheTTL <= 0 {
		return fmt.Errorf("RECOMMEND_CACHE_TTL must be positive when the cache is enabled")
	}
	if c.Recommend.RequestTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_REQUEST_TIMEOUT must be positive, got %v", c.Recommend.RequestTimeout)
	}
	return nil
}

func (c *Config) validateIndexCache() error {
	if c.IndexCache.Enabled && c.IndexCache.Path == "" {
		return fmt.Errorf("INDEX_CACHE_PATH is required when INDEX_CACHE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateReload() error {
	if c.Reload.Interval < 0 {
		return fmt.Errorf("RELOAD_INTERVAL must be non-negative, got %v", c.Reload.Interval)
	}
	if c.Reload.MinGap < 0 {
		return fmt.Errorf("RELOAD_MIN_GAP must be non-negative, got %v", c.Reload.MinGap)
	}
	if c.Reload.FailureThreshold == 0 {
		return fmt.Errorf("RELOAD_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

func (c *Config) validateEvaluate() error {
	if c.Evaluate.K < 1 || c.Evaluate.K > 10 {
		return fmt.Errorf("EVAL_K must be between 1 and 10, got %d", c.Evaluate.K)
	}
	if c.Evaluate.Threshold < 0.5 || c.Evaluate.Threshold > 5 {
		return fmt.Errorf("EVAL_THRESHOLD must be between 0.5 and 5.0, got %v", c.Evaluate.Threshold)
	}
	if c.Evaluate.SampleUsers < 0 {
		return fmt.Errorf("EVAL_SAMPLE_USERS must be non-negative, got %d", c.Evaluate.SampleUsers)
	}
	if c.Evaluate.TestFraction <= 0 || c.Evaluate.TestFraction >= 1 {
		return fmt.Errorf("EVAL_TEST_FRACTION must be in (0, 1), got %v", c.Evaluate.TestFraction)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
