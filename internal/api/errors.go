// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/validation"
)

// errorResponse is the HTTP rendering of a domain error.
type errorResponse struct {
	status  int
	code    string
	message string
	details any
}

// mapError translates service errors into HTTP responses. Internal
// failures get a generic message; the cause is logged by the caller.
func mapError(err error) errorResponse {
	var (
		insufficient *recommend.InsufficientRatingsError
		unknown      *recommend.UnknownMovieError
		invalid      *recommend.InvalidQueryError
		verr         *validation.RequestValidationError
	)

	switch {
	case errors.As(err, &insufficient):
		return errorResponse{http.StatusBadRequest, ErrCodeInsufficientRatings, insufficient.Error(),
			map[string]int{"got": insufficient.Got, "required": insufficient.Required}}
	case errors.As(err, &unknown):
		return errorResponse{http.StatusBadRequest, ErrCodeUnknownMovie, unknown.Error(),
			map[string]int{"movie_id": int(unknown.MovieID)}}
	case errors.As(err, &invalid):
		return errorResponse{http.StatusBadRequest, ErrCodeValidation, invalid.Error(),
			map[string]int{"movie_id": int(invalid.MovieID)}}
	case errors.As(err, &verr):
		return errorResponse{http.StatusBadRequest, ErrCodeValidation, verr.Error(), verr.Fields()}
	case errors.Is(err, errBadRequest):
		return errorResponse{http.StatusBadRequest, ErrCodeValidation, err.Error(), nil}
	case errors.Is(err, recommend.ErrNotReady):
		return errorResponse{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "recommendation service is not ready", nil}
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request timed out", nil}
	case errors.Is(err, context.Canceled):
		return errorResponse{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request canceled", nil}
	case errors.Is(err, recommend.ErrReloadThrottled):
		return errorResponse{http.StatusTooManyRequests, ErrCodeTooManyRequests, err.Error(), nil}
	case errors.Is(err, recommend.ErrReloadInProgress):
		return errorResponse{http.StatusConflict, ErrCodeConflict, err.Error(), nil}
	default:
		return errorResponse{http.StatusInternalServerError, ErrCodeInternalError, "an internal error occurred", nil}
	}
}
