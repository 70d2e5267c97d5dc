// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/cinematch/internal/catalog"
)

var (
	// ErrNotReady means no snapshot has been installed yet.
	ErrNotReady = errors.New("recommendation service is not ready")

	// ErrReloadInProgress is returned when a reload is already running.
	ErrReloadInProgress = errors.New("reload already in progress")

	// ErrReloadThrottled is returned when a manual reload follows the
	// previous one too closely.
	ErrReloadThrottled = errors.New("reload requested too soon after the previous one")

	// ErrNoBuilder is returned by Reload on a service without a Builder.
	ErrNoBuilder = errors.New("no snapshot builder configured")
)

// InsufficientRatingsError rejects a query with too few ratings.
type InsufficientRatingsError struct {
	Got      int
	Required int
}

func (e *InsufficientRatingsError) Error() string {
	return fmt.Sprintf("at least %d ratings are required, got %d", e.Required, e.Got)
}

// UnknownMovieError names a query movie that is not in the catalog.
type UnknownMovieError struct {
	MovieID catalog.MovieID
}

func (e *UnknownMovieError) Error() string {
	return fmt.Sprintf("unknown movie %d", e.MovieID)
}

// InvalidQueryError rejects a malformed query entry.
type InvalidQueryError struct {
	MovieID catalog.MovieID
	Reason  string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid rating for movie %d: %s", e.MovieID, e.Reason)
}

// InternalError wraps a failure that is the service's fault, not the
// caller's.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
