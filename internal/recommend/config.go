// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"fmt"
	"time"
)

// Query limits.
const (
	// MinQueryRatings is the smallest accepted query.
	MinQueryRatings = 6

	// MaxResults caps the recommendation list.
	MaxResults = 10

	// MaxSimilar caps the "more like this" list.
	MaxSimilar = 100
)

// Config holds the Service settings.
type Config struct {
	// CacheSize is the maximum number of cached results (0 disables the cache).
	CacheSize int `json:"cache_size"`

	// CacheTTL is how long a cached result stays valid.
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns the default Service settings.
func DefaultConfig() Config {
	return Config{
		CacheSize: 1000,
		CacheTTL:  5 * time.Minute,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", c.CacheSize)
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive when the cache is enabled, got %s", c.CacheTTL)
	}
	return nil
}
