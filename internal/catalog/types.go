// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"fmt"
	"math"
)

// MovieID identifies a movie in the catalog.
type MovieID int

// UserID identifies a rater in the historical corpus.
type UserID int

// Score bounds. Valid scores are the half-star steps between them.
const (
	MinScore  = 0.5
	MaxScore  = 5.0
	ScoreStep = 0.5
)

// maxID is the largest id accepted; ids are stored as int32 internally.
const maxID = math.MaxInt32

// ValidScore reports whether s is one of the discrete rating values.
func ValidScore(s float64) bool {
	if math.IsNaN(s) || s < MinScore || s > MaxScore {
		return false
	}
	steps := s / ScoreStep
	return steps == math.Trunc(steps)
}

// ClampScore limits s to [MinScore, MaxScore].
func ClampScore(s float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, s))
}

// Movie is one catalog entry with its aggregate rating statistics.
type Movie struct {
	ID          MovieID  `json:"movie_id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	Year        int      `json:"year,omitempty"`
	RatingCount int      `json:"rating_count"`
	MeanRating  float64  `json:"mean_rating"`
}

// Rating is one historical (user, movie, score) observation.
type Rating struct {
	UserID    UserID
	MovieID   MovieID
	Score     float64
	Timestamp int64
}

// MovieScore pairs a movie with a score.
type MovieScore struct {
	Movie MovieID `json:"movie_id"`
	Score float64 `json:"score"`
}

// DuplicatePolicy decides what happens when a (user, movie) pair is rated
// more than once in the corpus.
type DuplicatePolicy int

const (
	// DuplicatesReject fails the load on the second rating of a pair.
	DuplicatesReject DuplicatePolicy = iota
	// DuplicatesLastWins keeps the rating that appears last in the input.
	DuplicatesLastWins
)

// String implements fmt.Stringer.
func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicatesReject:
		return "reject"
	case DuplicatesLastWins:
		return "last"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy maps the configuration value to a DuplicatePolicy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "reject", "":
		return DuplicatesReject, nil
	case "last":
		return DuplicatesLastWins, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q", s)
	}
}
