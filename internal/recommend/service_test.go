// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// exampleQuery rates 1 and 2 highly, 3 and 4 poorly and 5 and 6 neutrally.
var exampleQuery = []catalog.MovieScore{
	{Movie: 1, Score: 5}, {Movie: 2, Score: 5},
	{Movie: 3, Score: 1}, {Movie: 4, Score: 1},
	{Movie: 5, Score: 3}, {Movie: 6, Score: 3},
}

// exampleSnapshot wires a hand-written index over a small catalog:
//
//	7  -> 1 (0.8), 2 (0.6)     predicted 5.0
//	8  -> 3 (0.9), 4 (0.7)     predicted 1.0
//	9  -> no neighbors         cold, never predicted
//	10 -> 1 (0.5)              predicted 5.0, 5 raters
//	11 -> 2 (0.5)              predicted 5.0, 3 raters
//	12 -> 5 (0.4), 1 (-0.4)    predicted 2.0
func exampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	var movies []catalog.Movie
	for id := 1; id <= 12; id++ {
		movies = append(movies, catalog.Movie{ID: catalog.MovieID(id), Title: "Movie", Genres: []string{"Drama"}})
	}

	var ratings []catalog.Rating
	rate := func(movie catalog.MovieID, users int) {
		for u := 1; u <= users; u++ {
			ratings = append(ratings, catalog.Rating{UserID: catalog.UserID(u), MovieID: movie, Score: 3})
		}
	}
	for id := 1; id <= 9; id++ {
		rate(catalog.MovieID(id), 3)
	}
	rate(10, 5)
	rate(11, 3)
	rate(12, 1)

	store, err := catalog.NewStore(movies, ratings, catalog.DuplicatesReject)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	cfg := similarity.Config{MinCommonRaters: 1, Neighbors: 5}
	lists := map[catalog.MovieID][]similarity.Neighbor{
		7:  {{Movie: 1, Similarity: 0.8, CoRaters: 3}, {Movie: 2, Similarity: 0.6, CoRaters: 3}},
		8:  {{Movie: 3, Similarity: 0.9, CoRaters: 3}, {Movie: 4, Similarity: 0.7, CoRaters: 3}},
		10: {{Movie: 1, Similarity: 0.5, CoRaters: 3}},
		11: {{Movie: 2, Similarity: 0.5, CoRaters: 3}},
		12: {{Movie: 5, Similarity: 0.4, CoRaters: 1}, {Movie: 1, Similarity: -0.4, CoRaters: 1}},
	}
	index, err := similarity.NewIndex(store.BuildID(), cfg, lists)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	snap, err := NewSnapshot(store, index)
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func newTestService(t *testing.T, snap *Snapshot) *Service {
	t.Helper()
	svc := NewService(DefaultConfig(), nil, zerolog.Nop())
	if snap != nil {
		svc.Install(snap)
	}
	return svc
}

func ids(recs []Recommendation) []catalog.MovieID {
	out := make([]catalog.MovieID, len(recs))
	for i, r := range recs {
		out[i] = r.MovieID
	}
	return out
}

func TestRecommendRanking(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	res, err := svc.Recommend(context.Background(), exampleQuery)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// 7, 10 and 11 tie at 5.0: rating count desc (10 has 5 raters), then id.
	// 12: 3 + (0.4*0 + -0.4*2)/0.8 = 2.0. 8 predicts 1.0. 9 is cold.
	want := []catalog.MovieID{10, 7, 11, 12, 8}
	if got := ids(res.Recommendations); !reflect.DeepEqual(got, want) {
		t.Errorf("Recommend() order = %v, want %v", got, want)
	}

	scores := map[catalog.MovieID]float64{10: 5, 7: 5, 11: 5, 12: 2, 8: 1}
	for _, r := range res.Recommendations {
		if r.PredictedScore != scores[r.MovieID] {
			t.Errorf("movie %d predicted %v, want %v", r.MovieID, r.PredictedScore, scores[r.MovieID])
		}
	}
	if res.SnapshotID == "" {
		t.Error("SnapshotID is empty")
	}
}

func TestRecommendHighAboveLow(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	res, err := svc.Recommend(context.Background(), exampleQuery)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	pos := map[catalog.MovieID]int{}
	for i, r := range res.Recommendations {
		pos[r.MovieID] = i
	}
	if pos[7] >= pos[8] {
		t.Errorf("movie 7 ranked at %d, movie 8 at %d; want 7 above 8", pos[7], pos[8])
	}
	if _, ok := pos[9]; ok {
		t.Error("cold movie 9 must not be recommended")
	}
}

// builtExampleSnapshot indexes a corpus with similarity.Build. Users 1-4
// rate movies 1, 2 and 7 at 5 and movies 3, 4 and 8 at 1; users 5-8 the
// reverse. Everyone rates 5 and 6 at 3, so every user mean is 3. Movie 9
// has three raters, below the co-rater threshold.
func builtExampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	var movies []catalog.Movie
	for id := 1; id <= 9; id++ {
		movies = append(movies, catalog.Movie{ID: catalog.MovieID(id), Title: "Movie"})
	}
	var ratings []catalog.Rating
	add := func(u int, movie catalog.MovieID, score float64) {
		ratings = append(ratings, catalog.Rating{UserID: catalog.UserID(u), MovieID: movie, Score: score})
	}
	for u := 1; u <= 8; u++ {
		high, low := 5.0, 1.0
		if u > 4 {
			high, low = low, high
		}
		for _, m := range []catalog.MovieID{1, 2, 7} {
			add(u, m, high)
		}
		for _, m := range []catalog.MovieID{3, 4, 8} {
			add(u, m, low)
		}
		add(u, 5, 3)
		add(u, 6, 3)
		if u <= 3 {
			add(u, 9, 3)
		}
	}

	store, err := catalog.NewStore(movies, ratings, catalog.DuplicatesReject)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	index, err := similarity.Build(context.Background(), store, similarity.Config{MinCommonRaters: 5, Neighbors: 10, Workers: 2})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	snap, err := NewSnapshot(store, index)
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func TestRecommendBuiltIndex(t *testing.T) {
	t.Parallel()

	snap := builtExampleSnapshot(t)
	if got := snap.Index.Neighbors(9, 10); len(got) != 0 {
		t.Fatalf("movie 9 neighbors = %+v, want none", got)
	}

	svc := newTestService(t, snap)
	res, err := svc.Recommend(context.Background(), exampleQuery)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// 7: 3 + (2+2+2+2)/4 = 5. 8: 3 - 8/4 = 1.
	want := []catalog.MovieID{7, 8}
	if got := ids(res.Recommendations); !reflect.DeepEqual(got, want) {
		t.Fatalf("Recommend() order = %v, want %v", got, want)
	}
	if res.Recommendations[0].PredictedScore <= res.Recommendations[1].PredictedScore {
		t.Errorf("scores = %v, %v; want 7 above 8",
			res.Recommendations[0].PredictedScore, res.Recommendations[1].PredictedScore)
	}
}

func TestInstallPurgesResultCache(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	if _, err := svc.Recommend(context.Background(), exampleQuery); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if svc.results.Len() != 1 {
		t.Fatalf("cache size = %d, want 1", svc.results.Len())
	}

	svc.Install(builtExampleSnapshot(t))
	if svc.results.Len() != 0 {
		t.Errorf("cache size after install = %d, want 0", svc.results.Len())
	}
}

func TestRecommendExcludesQuery(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	res, err := svc.Recommend(context.Background(), exampleQuery)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, r := range res.Recommendations {
		if r.MovieID <= 6 {
			t.Errorf("query movie %d returned as recommendation", r.MovieID)
		}
	}
}

func TestRecommendValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	ctx := context.Background()

	t.Run("five ratings", func(t *testing.T) {
		_, err := svc.Recommend(ctx, exampleQuery[:5])
		var e *InsufficientRatingsError
		if !errors.As(err, &e) {
			t.Fatalf("error = %v, want InsufficientRatingsError", err)
		}
		if e.Got != 5 || e.Required != MinQueryRatings {
			t.Errorf("error = %+v", e)
		}
	})

	t.Run("insufficient before unknown", func(t *testing.T) {
		q := []catalog.MovieScore{{Movie: 999, Score: 4}}
		var e *InsufficientRatingsError
		if _, err := svc.Recommend(ctx, q); !errors.As(err, &e) {
			t.Errorf("error = %v, want InsufficientRatingsError", err)
		}
	})

	t.Run("unknown movie", func(t *testing.T) {
		q := append([]catalog.MovieScore{}, exampleQuery...)
		q[3] = catalog.MovieScore{Movie: 4242, Score: 2}
		_, err := svc.Recommend(ctx, q)
		var e *UnknownMovieError
		if !errors.As(err, &e) {
			t.Fatalf("error = %v, want UnknownMovieError", err)
		}
		if e.MovieID != 4242 {
			t.Errorf("UnknownMovieError.MovieID = %d, want 4242", e.MovieID)
		}
	})

	t.Run("duplicates count once", func(t *testing.T) {
		q := append([]catalog.MovieScore{}, exampleQuery...)
		q[1] = catalog.MovieScore{Movie: 1, Score: 5}
		_, err := svc.Recommend(ctx, q)
		var e *InsufficientRatingsError
		if !errors.As(err, &e) {
			t.Fatalf("error = %v, want InsufficientRatingsError", err)
		}
		if e.Got != 5 {
			t.Errorf("InsufficientRatingsError.Got = %d, want 5", e.Got)
		}
	})

	t.Run("unknown before off-scale score", func(t *testing.T) {
		q := append([]catalog.MovieScore{}, exampleQuery...)
		q[0].Score = 4.3
		q = append(q, catalog.MovieScore{Movie: 999, Score: 4.2})
		_, err := svc.Recommend(ctx, q)
		var e *UnknownMovieError
		if !errors.As(err, &e) {
			t.Fatalf("error = %v, want UnknownMovieError", err)
		}
		if e.MovieID != 999 {
			t.Errorf("UnknownMovieError.MovieID = %d, want 999", e.MovieID)
		}
	})

	t.Run("score off scale", func(t *testing.T) {
		q := append([]catalog.MovieScore{}, exampleQuery...)
		q[0].Score = 4.3
		var e *InvalidQueryError
		if _, err := svc.Recommend(ctx, q); !errors.As(err, &e) {
			t.Errorf("error = %v, want InvalidQueryError", err)
		}
	})

	t.Run("repeated movie keeps last score", func(t *testing.T) {
		q := append([]catalog.MovieScore{}, exampleQuery...)
		q = append(q, catalog.MovieScore{Movie: 7, Score: 1}, catalog.MovieScore{Movie: 7, Score: 4})
		res, err := svc.Recommend(ctx, q)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		for _, r := range res.Recommendations {
			if r.MovieID == 7 {
				t.Error("query movie 7 returned as recommendation")
			}
		}
	})

	if got := svc.Stats().Rejected; got != 6 {
		t.Errorf("Stats().Rejected = %d, want 6", got)
	}
}

func TestRecommendNotReady(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	if svc.Health().Ready {
		t.Fatal("Health().Ready = true before install")
	}
	if _, err := svc.Recommend(context.Background(), exampleQuery); !errors.Is(err, ErrNotReady) {
		t.Errorf("error = %v, want ErrNotReady", err)
	}

	svc.Install(exampleSnapshot(t))
	h := svc.Health()
	if !h.Ready || h.SnapshotID == "" || h.Movies != 12 {
		t.Errorf("Health() = %+v", h)
	}
}

func TestRecommendCache(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	ctx := context.Background()

	first, err := svc.Recommend(ctx, exampleQuery)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// Same query in another order hits the cache.
	reversed := make([]catalog.MovieScore, len(exampleQuery))
	for i, r := range exampleQuery {
		reversed[len(exampleQuery)-1-i] = r
	}
	second, err := svc.Recommend(ctx, reversed)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\n%+v\n%+v", first, second)
	}
	st := svc.Stats()
	if st.CacheHits != 1 || st.CacheMisses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", st)
	}

	// Mutating a returned result does not affect the cache.
	second.Recommendations[0].Title = "changed"
	third, _ := svc.Recommend(ctx, exampleQuery)
	if third.Recommendations[0].Title == "changed" {
		t.Error("cache returned a shared slice")
	}
}

func TestSimilar(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, exampleSnapshot(t))
	ctx := context.Background()

	got, id, err := svc.Similar(ctx, 7, 1)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if id == "" || len(got) != 1 || got[0].MovieID != 1 || got[0].Similarity != 0.8 {
		t.Errorf("Similar(7, 1) = %+v", got)
	}

	got, _, err = svc.Similar(ctx, 9, 10)
	if err != nil || len(got) != 0 {
		t.Errorf("Similar(9) = (%v, %v), want empty", got, err)
	}

	var unknown *UnknownMovieError
	if _, _, err := svc.Similar(ctx, 777, 10); !errors.As(err, &unknown) {
		t.Errorf("Similar(777) error = %v, want UnknownMovieError", err)
	}
}

func TestInvariantViolationIsInternal(t *testing.T) {
	t.Parallel()

	got := (&Service{}).outcome(&InternalError{Err: errors.New("bad")})
	if got != "internal_error" {
		t.Errorf("outcome = %q, want internal_error", got)
	}
}

// randomSnapshot builds a real index over a random corpus.
func randomSnapshot(t *testing.T, seed uint64) *Snapshot {
	t.Helper()

	rng := rand.New(rand.NewPCG(seed, 1))
	var movies []catalog.Movie
	for id := 1; id <= 40; id++ {
		movies = append(movies, catalog.Movie{ID: catalog.MovieID(id), Title: "m"})
	}
	var ratings []catalog.Rating
	for u := 1; u <= 60; u++ {
		for m := 1; m <= 40; m++ {
			if rng.IntN(3) == 0 {
				continue
			}
			score := float64(1+rng.IntN(10)) / 2
			ratings = append(ratings, catalog.Rating{UserID: catalog.UserID(u), MovieID: catalog.MovieID(m), Score: score})
		}
	}
	store, err := catalog.NewStore(movies, ratings, catalog.DuplicatesReject)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	index, err := similarity.Build(context.Background(), store, similarity.Config{MinCommonRaters: 5, Neighbors: 10, Workers: 3})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	snap, err := NewSnapshot(store, index)
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func TestRecommendProperties(t *testing.T) {
	t.Parallel()

	snap := randomSnapshot(t, 7)
	svc := NewService(Config{}, nil, zerolog.Nop())
	svc.Install(snap)

	rng := rand.New(rand.NewPCG(99, 2))
	for trial := 0; trial < 25; trial++ {
		perm := rng.Perm(40)
		n := 6 + rng.IntN(10)
		query := make([]catalog.MovieScore, n)
		rated := map[catalog.MovieID]bool{}
		for i := 0; i < n; i++ {
			id := catalog.MovieID(perm[i] + 1)
			query[i] = catalog.MovieScore{Movie: id, Score: float64(1+rng.IntN(10)) / 2}
			rated[id] = true
		}

		res, err := svc.Recommend(context.Background(), query)
		if err != nil {
			t.Fatalf("trial %d: Recommend() error = %v", trial, err)
		}
		again, err := svc.Recommend(context.Background(), query)
		if err != nil {
			t.Fatalf("trial %d: second Recommend() error = %v", trial, err)
		}
		if !reflect.DeepEqual(res, again) {
			t.Fatalf("trial %d: identical input produced different output", trial)
		}

		recs := res.Recommendations
		if len(recs) > MaxResults {
			t.Fatalf("trial %d: %d results", trial, len(recs))
		}
		for i, r := range recs {
			if rated[r.MovieID] {
				t.Errorf("trial %d: query movie %d recommended", trial, r.MovieID)
			}
			if r.PredictedScore < catalog.MinScore || r.PredictedScore > catalog.MaxScore {
				t.Errorf("trial %d: score %v out of range", trial, r.PredictedScore)
			}
			if i > 0 && compareRecommendations(recs[i-1], r) >= 0 {
				t.Errorf("trial %d: results out of order at %d", trial, i)
			}
			// Every recommendation is backed by a neighbor the query rated.
			backed := false
			for _, n := range snap.Index.Neighbors(r.MovieID, 0) {
				if rated[n.Movie] {
					backed = true
					break
				}
			}
			if !backed {
				t.Errorf("trial %d: movie %d has no rated neighbor", trial, r.MovieID)
			}
		}
	}
}

func TestNewSnapshotRejectsStaleIndex(t *testing.T) {
	t.Parallel()

	a := randomSnapshot(t, 1)
	b := randomSnapshot(t, 2)
	if _, err := NewSnapshot(a.Store, b.Index); !errors.Is(err, similarity.ErrStale) {
		t.Errorf("NewSnapshot() error = %v, want ErrStale", err)
	}
}
