// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/indexcache"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// testSnapshot: movies 1-6 are the query, 7 is close to 1 and 2, 8 to 3
// and 4, 9 is cold.
func testSnapshot(t *testing.T) *recommend.Snapshot {
	t.Helper()

	var movies []catalog.Movie
	for id := 1; id <= 9; id++ {
		movies = append(movies, catalog.Movie{ID: catalog.MovieID(id), Title: "Movie", Genres: []string{"Drama"}, Year: 1999})
	}
	var ratings []catalog.Rating
	for id := 1; id <= 9; id++ {
		for u := 1; u <= 3; u++ {
			ratings = append(ratings, catalog.Rating{UserID: catalog.UserID(u), MovieID: catalog.MovieID(id), Score: 4})
		}
	}
	store, err := catalog.NewStore(movies, ratings, catalog.DuplicatesReject)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	index, err := similarity.NewIndex(store.BuildID(), similarity.Config{MinCommonRaters: 1, Neighbors: 5},
		map[catalog.MovieID][]similarity.Neighbor{
			7: {{Movie: 1, Similarity: 0.8, CoRaters: 3}, {Movie: 2, Similarity: 0.6, CoRaters: 3}},
			8: {{Movie: 3, Similarity: 0.9, CoRaters: 3}, {Movie: 4, Similarity: 0.7, CoRaters: 3}},
		})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	snap, err := recommend.NewSnapshot(store, index)
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

type fakeTrigger struct {
	err   error
	calls int
}

func (f *fakeTrigger) Trigger() error {
	f.calls++
	return f.err
}

func newTestRouter(t *testing.T, ready bool, trigger ReloadTrigger) http.Handler {
	t.Helper()

	svc := recommend.NewService(recommend.DefaultConfig(), nil, zerolog.Nop())
	if ready {
		svc.Install(testSnapshot(t))
	}
	h := NewHandler(svc, trigger, time.Second, zerolog.Nop())
	return NewRouter(RouterConfig{CORSOrigins: []string{"https://example.com"}}, h)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

const exampleBody = `{"ratings":[
	{"movie_id":1,"score":5},{"movie_id":2,"score":5},
	{"movie_id":3,"score":1},{"movie_id":4,"score":1},
	{"movie_id":5,"score":3},{"movie_id":6,"score":3}]}`

func TestRecommendEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)
	rec, env := do(t, h, http.MethodPost, "/api/v1/recommend", exampleBody)

	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data RecommendResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Recommendations) != 2 {
		t.Fatalf("got %d recommendations, want 2: %+v", len(data.Recommendations), data.Recommendations)
	}
	if data.Recommendations[0].MovieID != 7 || data.Recommendations[1].MovieID != 8 {
		t.Errorf("order = %d, %d; want 7, 8", data.Recommendations[0].MovieID, data.Recommendations[1].MovieID)
	}
	first := data.Recommendations[0]
	if first.Title != "Movie" || first.Year != 1999 || first.RatingCount != 3 || first.PredictedScore != 5 {
		t.Errorf("first recommendation = %+v", first)
	}
	if data.SnapshotID == "" {
		t.Error("snapshot_id missing")
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("meta.request_id missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestRecommendEndpointErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ready      bool
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "five ratings",
			ready:      true,
			body:       `{"ratings":[{"movie_id":1,"score":5},{"movie_id":2,"score":5},{"movie_id":3,"score":1},{"movie_id":4,"score":1},{"movie_id":5,"score":3}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInsufficientRatings,
		},
		{
			name:       "unknown movie",
			ready:      true,
			body:       strings.Replace(exampleBody, `"movie_id":6`, `"movie_id":600`, 1),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeUnknownMovie,
		},
		{
			name:       "duplicate movie counts once",
			ready:      true,
			body:       strings.Replace(exampleBody, `"movie_id":6`, `"movie_id":5`, 1),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInsufficientRatings,
		},
		{
			name:       "off-scale score",
			ready:      true,
			body:       strings.Replace(exampleBody, `"score":3}]`, `"score":3.3}]`, 1),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "missing ratings",
			ready:      true,
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "malformed json",
			ready:      true,
			body:       `{"ratings":[`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "unknown field",
			ready:      true,
			body:       `{"ratings":[],"user":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "not ready",
			ready:      false,
			body:       exampleBody,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestRouter(t, tt.ready, nil)
			rec, env := do(t, h, http.MethodPost, "/api/v1/recommend", tt.body)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.Success || env.Error == nil {
				t.Fatalf("expected error envelope, got %s", rec.Body.String())
			}
			if env.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestUnknownMovieNamesID(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)
	body := strings.Replace(exampleBody, `"movie_id":6`, `"movie_id":600`, 1)
	_, env := do(t, h, http.MethodPost, "/api/v1/recommend", body)

	if env.Error == nil || !strings.Contains(env.Error.Message, "600") {
		t.Errorf("error = %+v, want message naming 600", env.Error)
	}
}

func TestSimilarEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)

	rec, env := do(t, h, http.MethodGet, "/api/v1/movies/7/similar?k=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var data SimilarResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.MovieID != 7 || len(data.Similar) != 1 || data.Similar[0].MovieID != 1 {
		t.Errorf("similar = %+v", data)
	}

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
	}{
		{"/api/v1/movies/404/similar", http.StatusNotFound, ErrCodeUnknownMovie},
		{"/api/v1/movies/abc/similar", http.StatusBadRequest, ErrCodeValidation},
		{"/api/v1/movies/7/similar?k=0x", http.StatusBadRequest, ErrCodeValidation},
		{"/api/v1/movies/7/similar?k=101", http.StatusBadRequest, ErrCodeValidation},
		{"/api/v1/movies/0/similar", http.StatusBadRequest, ErrCodeValidation},
	}
	for _, tt := range tests {
		rec, env := do(t, h, http.MethodGet, tt.path, "")
		if rec.Code != tt.wantStatus || env.Error == nil || env.Error.Code != tt.wantCode {
			t.Errorf("%s: status %d body %s, want %d %s", tt.path, rec.Code, rec.Body.String(), tt.wantStatus, tt.wantCode)
		}
	}
}

func TestMovieEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)

	rec, env := do(t, h, http.MethodGet, "/api/v1/movies/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var m catalog.Movie
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ID != 3 || m.RatingCount != 3 || m.MeanRating != 4 {
		t.Errorf("movie = %+v", m)
	}

	if rec, _ := do(t, h, http.MethodGet, "/api/v1/movies/99", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown movie status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	notReady := newTestRouter(t, false, nil)
	ready := newTestRouter(t, true, nil)

	tests := []struct {
		name       string
		h          http.Handler
		path       string
		wantStatus int
	}{
		{"live before ready", notReady, "/api/v1/health/live", http.StatusOK},
		{"ready before install", notReady, "/api/v1/health/ready", http.StatusServiceUnavailable},
		{"health before install", notReady, "/api/v1/health", http.StatusOK},
		{"ready after install", ready, "/api/v1/health/ready", http.StatusOK},
		{"health after install", ready, "/api/v1/health", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, tt.h, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}
		})
	}
}

func TestReloadEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trigger    ReloadTrigger
		wantStatus int
	}{
		{"queued", &fakeTrigger{}, http.StatusAccepted},
		{"throttled", &fakeTrigger{err: recommend.ErrReloadThrottled}, http.StatusTooManyRequests},
		{"in progress", &fakeTrigger{err: recommend.ErrReloadInProgress}, http.StatusConflict},
		{"not configured", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newTestRouter(t, true, tt.trigger)
			rec, _ := do(t, h, http.MethodPost, "/api/v1/admin/reload", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

type fakeIndexCatalog struct {
	stored []indexcache.Metadata
	err    error
}

func (f fakeIndexCatalog) List(context.Context) ([]indexcache.Metadata, error) {
	return f.stored, f.err
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	newRouter := func(indexes IndexCatalog) http.Handler {
		svc := recommend.NewService(recommend.DefaultConfig(), nil, zerolog.Nop())
		svc.Install(testSnapshot(t))
		h := NewHandler(svc, nil, time.Second, zerolog.Nop())
		if indexes != nil {
			h.SetIndexCatalog(indexes)
		}
		return NewRouter(RouterConfig{}, h)
	}

	t.Run("without index cache", func(t *testing.T) {
		t.Parallel()
		rec, env := do(t, newRouter(nil), http.MethodGet, "/api/v1/stats", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if strings.Contains(string(env.Data), "index_cache") {
			t.Errorf("index_cache present without a catalog: %s", env.Data)
		}
	})

	t.Run("lists persisted indexes", func(t *testing.T) {
		t.Parallel()
		stored := []indexcache.Metadata{{Version: 1, BuildID: "idx-1", MoviesIndexed: 9}}
		rec, env := do(t, newRouter(fakeIndexCatalog{stored: stored}), http.MethodGet, "/api/v1/stats", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var data StatsResponse
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if len(data.IndexCache) != 1 || data.IndexCache[0].BuildID != "idx-1" {
			t.Errorf("index_cache = %+v", data.IndexCache)
		}
	})

	t.Run("catalog failure", func(t *testing.T) {
		t.Parallel()
		rec, env := do(t, newRouter(fakeIndexCatalog{err: errors.New("badger closed")}), http.MethodGet, "/api/v1/stats", "")
		if rec.Code != http.StatusInternalServerError || env.Error == nil || env.Error.Code != ErrCodeInternalError {
			t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRouterFallbacks(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)

	if rec, env := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: %d %s", rec.Code, rec.Body.String())
	}
	if rec, _ := do(t, h, http.MethodGet, "/api/v1/recommend", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /recommend status = %d, want 405", rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("/metrics status = %d", rec.Code)
	}
}

func TestSwaggerDoc(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("/swagger/doc.json status = %d", rec.Code)
	}
	for _, path := range []string{`"/recommend"`, `"/movies/{id}/similar"`, `"/admin/reload"`} {
		if !strings.Contains(rec.Body.String(), path) {
			t.Errorf("doc.json missing %s", path)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommend", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
