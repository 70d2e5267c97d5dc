// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package similarity

import "fmt"

// Config holds the index policy knobs.
type Config struct {
	// MinCommonRaters is the co-rater threshold for a pair to be retained.
	MinCommonRaters int `json:"min_common_raters"`

	// Neighbors is K, the list length kept per movie.
	Neighbors int `json:"neighbors"`

	// Workers bounds build parallelism (0 = runtime.NumCPU()).
	// It does not affect the result.
	Workers int `json:"workers"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinCommonRaters: 5,
		Neighbors:       50,
		Workers:         0,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MinCommonRaters < 1 {
		return fmt.Errorf("min_common_raters must be at least 1, got %d", c.MinCommonRaters)
	}
	if c.Neighbors < 1 {
		return fmt.Errorf("neighbors must be at least 1, got %d", c.Neighbors)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}
