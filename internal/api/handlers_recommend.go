// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/indexcache"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/validation"
)

// RecommendResponse is the data member of a recommend response.
type RecommendResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	SnapshotID      string                     `json:"snapshot_id"`
}

// SimilarResponse is the data member of a similar-movies response.
type SimilarResponse struct {
	MovieID    catalog.MovieID          `json:"movie_id"`
	Similar    []recommend.SimilarMovie `json:"similar"`
	SnapshotID string                   `json:"snapshot_id"`
}

// StatsResponse is the data member of a stats response.
type StatsResponse struct {
	Service    recommend.Stats       `json:"service"`
	IndexCache []indexcache.Metadata `json:"index_cache,omitempty"`
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, start, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res, err := h.svc.Recommend(ctx, req.MovieScores())
	if err != nil {
		h.fail(w, r, start, err)
		return
	}

	recs := res.Recommendations
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	respondSuccess(w, r, start, RecommendResponse{Recommendations: recs, SnapshotID: res.SnapshotID})
}

// Movie handles GET /api/v1/movies/{id}.
func (h *Handler) Movie(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, r, start, http.StatusBadRequest, ErrCodeValidation, "movie id must be a positive integer", nil)
		return
	}

	snap := h.svc.Snapshot()
	if snap == nil {
		h.fail(w, r, start, recommend.ErrNotReady)
		return
	}
	m, ok := snap.Store.Movie(catalog.MovieID(id))
	if !ok {
		respondError(w, r, start, http.StatusNotFound, ErrCodeUnknownMovie, (&recommend.UnknownMovieError{MovieID: catalog.MovieID(id)}).Error(),
			map[string]int{"movie_id": id})
		return
	}
	respondSuccess(w, r, start, m)
}

// Similar handles GET /api/v1/movies/{id}/similar.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, start, http.StatusBadRequest, ErrCodeValidation, "movie id must be an integer", nil)
		return
	}
	k, err := parseIntParam("k", r.URL.Query().Get("k"))
	if err != nil {
		h.fail(w, r, start, err)
		return
	}

	req := SimilarRequest{MovieID: id, K: k}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.fail(w, r, start, verr)
		return
	}
	if req.K == 0 {
		req.K = 10
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	similar, snapshotID, err := h.svc.Similar(ctx, catalog.MovieID(req.MovieID), req.K)
	if err != nil {
		if resp := mapError(err); resp.code == ErrCodeUnknownMovie {
			respondError(w, r, start, http.StatusNotFound, resp.code, resp.message, resp.details)
			return
		}
		h.fail(w, r, start, err)
		return
	}

	respondSuccess(w, r, start, SimilarResponse{MovieID: catalog.MovieID(req.MovieID), Similar: similar, SnapshotID: snapshotID})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := StatsResponse{Service: h.svc.Stats()}

	if h.indexes != nil {
		ctx, cancel := h.withTimeout(r.Context())
		defer cancel()

		stored, err := h.indexes.List(ctx)
		if err != nil {
			h.fail(w, r, start, err)
			return
		}
		resp.IndexCache = stored
	}
	respondSuccess(w, r, start, resp)
}

// Reload handles POST /api/v1/admin/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.reload == nil {
		respondError(w, r, start, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "reload is not configured", nil)
		return
	}
	if err := h.reload.Trigger(); err != nil {
		h.fail(w, r, start, err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("snapshot reload queued")
	respondStatus(w, r, start, http.StatusAccepted, map[string]bool{"queued": true})
}

// fail renders err, logging internal errors with the request context.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	resp := mapError(err)
	switch {
	case resp.status == http.StatusServiceUnavailable:
		logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("request not served")
	case resp.status >= http.StatusInternalServerError:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondError(w, r, start, resp.status, resp.code, resp.message, resp.details)
}
