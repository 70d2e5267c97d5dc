// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errBadRequest marks a malformed request body or parameter.
var errBadRequest = errors.New("invalid request")

// RatingDTO is one entry of a recommend request.
type RatingDTO struct {
	MovieID int     `json:"movie_id"`
	Score   float64 `json:"score"`
}

// RecommendRequest is the body of POST /api/v1/recommend. Entry-level
// checks (count, duplicates, scale, catalog membership) belong to the
// service so that they are reported in a fixed order.
type RecommendRequest struct {
	Ratings []RatingDTO `json:"ratings" validate:"required,max=1000"`
}

// MovieScores converts the request to service input.
func (r *RecommendRequest) MovieScores() []catalog.MovieScore {
	out := make([]catalog.MovieScore, len(r.Ratings))
	for i, dto := range r.Ratings {
		out[i] = catalog.MovieScore{Movie: catalog.MovieID(dto.MovieID), Score: dto.Score}
	}
	return out
}

// SimilarRequest holds the parameters of GET /api/v1/movies/{id}/similar.
type SimilarRequest struct {
	MovieID int `json:"id" validate:"gt=0"`
	K       int `json:"k" validate:"omitempty,min=1,max=100"`
}

// decodeJSON decodes a bounded JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: larger than %d bytes", errBadRequest, maxBodyBytes)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// parseIntParam parses an optional integer parameter; empty yields 0.
func parseIntParam(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}
