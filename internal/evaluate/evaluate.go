// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// Config controls an evaluation run.
type Config struct {
	K            int
	Threshold    float64
	SampleUsers  int // 0 = every user
	TestFraction float64
	Seed         int64
	Similarity   similarity.Config
	Workers      int // 0 = runtime.NumCPU()
}

// DefaultConfig mirrors the reference evaluation: Precision@10, liked at
// 4.0 and above, 1000 users, 40% holdout, seed 42.
func DefaultConfig() Config {
	return Config{
		K:            10,
		Threshold:    4.0,
		SampleUsers:  1000,
		TestFraction: 0.4,
		Seed:         42,
		Similarity:   similarity.DefaultConfig(),
	}
}

// Validate reports an unusable configuration.
func (c Config) Validate() error {
	if c.K < 1 || c.K > recommend.MaxResults {
		return fmt.Errorf("k must be between 1 and %d, got %d", recommend.MaxResults, c.K)
	}
	if !catalog.ValidScore(c.Threshold) {
		return fmt.Errorf("threshold %v is not on the rating scale", c.Threshold)
	}
	if c.SampleUsers < 0 {
		return fmt.Errorf("sample_users must be non-negative, got %d", c.SampleUsers)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0, 1), got %v", c.TestFraction)
	}
	return c.Similarity.Validate()
}

// Report is the outcome of a run.
type Report struct {
	K             int           `json:"k"`
	Threshold     float64       `json:"threshold"`
	Sampled       int           `json:"sampled_users"`
	Evaluated     int           `json:"evaluated_users"`
	Skipped       int           `json:"skipped_users"`
	Hits          int           `json:"hits"`
	MeanPrecision float64       `json:"mean_precision"`
	SnapshotID    string        `json:"snapshot_id"`
	Duration      time.Duration `json:"duration_ns"`
}

// split is one user's query/holdout partition.
type split struct {
	user    catalog.UserID
	query   []catalog.MovieScore
	holdout []catalog.MovieScore
}

// Run evaluates store under cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Run(ctx context.Context, store *catalog.Store, cfg Config, logger zerolog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "evaluate").Logger()
	start := time.Now()

	//nolint:gosec // math/rand is fine for reproducible sampling
	rng := rand.New(rand.NewSource(cfg.Seed))

	users := sampleUsers(store.UserIDs(), cfg.SampleUsers, rng)
	report := &Report{K: cfg.K, Threshold: cfg.Threshold, Sampled: len(users)}

	splits := make([]split, 0, len(users))
	for _, u := range users {
		s, ok := splitUser(u, store.RatingsOf(u), cfg.TestFraction, rng)
		if !ok {
			report.Skipped++
			continue
		}
		splits = append(splits, s)
	}
	if len(splits) == 0 {
		return nil, errors.New("no sampled user has enough ratings to evaluate")
	}

	train, err := trainingStore(store, splits)
	if err != nil {
		return nil, fmt.Errorf("build training corpus: %w", err)
	}
	logger.Info().
		Int("users", len(splits)).
		Int("skipped", report.Skipped).
		Int("training_ratings", train.NumRatings()).
		Msg("building similarity index from training corpus")

	index, err := similarity.Build(ctx, train, cfg.Similarity)
	if err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}
	snap, err := recommend.NewSnapshot(train, index)
	if err != nil {
		return nil, err
	}

	svc := recommend.NewService(recommend.Config{}, nil, logger)
	svc.Install(snap)
	report.SnapshotID = snap.ID

	hits, err := scoreUsers(ctx, svc, splits, cfg)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, h := range hits {
		total += h
	}
	report.Evaluated = len(splits)
	report.Hits = total
	report.MeanPrecision = float64(total) / float64(cfg.K*len(splits))
	report.Duration = time.Since(start)

	logger.Info().
		Int("k", cfg.K).
		Float64("precision", report.MeanPrecision).
		Int("evaluated", report.Evaluated).
		Dur("duration", report.Duration).
		Msg("evaluation complete")
	return report, nil
}

// sampleUsers draws n users without replacement; n <= 0 or n >= len keeps
// every user, still in shuffled order.
func sampleUsers(all []catalog.UserID, n int, rng *rand.Rand) []catalog.UserID {
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// splitUser shuffles ratings and holds out ceil(frac*n) of them. It fails
// when the user has too few ratings or the query part would be rejected.
func splitUser(u catalog.UserID, ratings []catalog.MovieScore, frac float64, rng *rand.Rand) (split, bool) {
	n := len(ratings)
	if n < recommend.MinQueryRatings {
		return split{}, false
	}
	rng.Shuffle(n, func(i, j int) { ratings[i], ratings[j] = ratings[j], ratings[i] })

	test := int(math.Ceil(frac * float64(n)))
	if n-test < recommend.MinQueryRatings {
		return split{}, false
	}
	return split{user: u, query: ratings[:n-test], holdout: ratings[n-test:]}, true
}

// trainingStore rebuilds the corpus without the holdout ratings.
func trainingStore(store *catalog.Store, splits []split) (*catalog.Store, error) {
	held := make(map[catalog.UserID]map[catalog.MovieID]bool, len(splits))
	for _, s := range splits {
		m := make(map[catalog.MovieID]bool, len(s.holdout))
		for _, r := range s.holdout {
			m[r.Movie] = true
		}
		held[s.user] = m
	}

	ratings := make([]catalog.Rating, 0, store.NumRatings())
	for _, u := range store.UserIDs() {
		skip := held[u]
		for _, r := range store.RatingsOf(u) {
			if skip[r.Movie] {
				continue
			}
			ratings = append(ratings, catalog.Rating{UserID: u, MovieID: r.Movie, Score: r.Score})
		}
	}
	return catalog.NewStore(store.Movies(), ratings, catalog.DuplicatesReject)
}

// scoreUsers runs every query through svc and counts relevant hits per
// user.
func scoreUsers(ctx context.Context, svc *recommend.Service, splits []split, cfg Config) ([]int, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	hits := make([]int, len(splits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range splits {
		g.Go(func() error {
			s := splits[i]
			res, err := svc.Recommend(gctx, s.query)
			if err != nil {
				return fmt.Errorf("user %d: %w", s.user, err)
			}
			hits[i] = countHits(res.Recommendations, s.holdout, cfg.K, cfg.Threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hits, nil
}

// countHits counts top-k recommendations the user rated >= threshold in
// the holdout.
func countHits(recs []recommend.Recommendation, holdout []catalog.MovieScore, k int, threshold float64) int {
	liked := make(map[catalog.MovieID]bool, len(holdout))
	for _, r := range holdout {
		if r.Score >= threshold {
			liked[r.Movie] = true
		}
	}
	if len(recs) > k {
		recs = recs[:k]
	}
	n := 0
	for _, r := range recs {
		if liked[r.MovieID] {
			n++
		}
	}
	return n
}
