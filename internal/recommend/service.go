// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/predict"
)

// Recommendation is one ranked result.
type Recommendation struct {
	MovieID        catalog.MovieID `json:"movie_id"`
	Title          string          `json:"title"`
	Year           int             `json:"year,omitempty"`
	Genres         []string        `json:"genres"`
	PredictedScore float64         `json:"predicted_score"`
	Clamped        bool            `json:"clamped,omitempty"`
	RatingCount    int             `json:"rating_count"`
	MeanRating     float64         `json:"mean_rating"`
}

// Result is the answer to one Recommend call.
type Result struct {
	SnapshotID      string           `json:"snapshot_id"`
	Recommendations []Recommendation `json:"recommendations"`
}

// SimilarMovie is one entry of a "more like this" list.
type SimilarMovie struct {
	MovieID     catalog.MovieID `json:"movie_id"`
	Title       string          `json:"title"`
	Year        int             `json:"year,omitempty"`
	Genres      []string        `json:"genres"`
	Similarity  float64         `json:"similarity"`
	CoRaters    int             `json:"co_raters"`
	RatingCount int             `json:"rating_count"`
}

// Health reports readiness and the serving snapshot.
type Health struct {
	Ready       bool       `json:"ready"`
	SnapshotID  string     `json:"snapshot_id,omitempty"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	Movies      int        `json:"movies"`
	Users       int        `json:"users"`
	Ratings     int        `json:"ratings"`
	Entries     int        `json:"similarity_entries"`
}

// Stats are lifetime request counters.
type Stats struct {
	RequestCount int64 `json:"request_count"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	Rejected     int64 `json:"rejected"`
	ErrorCount   int64 `json:"error_count"`
	Reloads      int64 `json:"reloads"`
}

// Service answers recommendation queries against the installed snapshot.
// It is safe for concurrent use.
type Service struct {
	cfg     Config
	logger  zerolog.Logger
	builder *Builder

	snapshot atomic.Pointer[Snapshot]
	reloadMu sync.Mutex

	results *cache.LRU[[]Recommendation]

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	rejected     atomic.Int64
	errorCount   atomic.Int64
	reloads      atomic.Int64
}

// NewService creates a Service with no snapshot. builder may be nil, in
// which case snapshots are supplied through Install.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg Config, builder *Builder, logger zerolog.Logger) *Service {
	s := &Service{
		cfg:     cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		builder: builder,
	}
	if cfg.CacheSize > 0 {
		s.results = cache.NewLRU[[]Recommendation](cfg.CacheSize, cfg.CacheTTL)
	}
	return s
}

// Install makes snap the serving snapshot.
func (s *Service) Install(snap *Snapshot) {
	snap.InstalledAt = time.Now()
	prev := s.snapshot.Swap(snap)

	stats := snap.Index.Stats()
	metrics.SetSnapshotInfo(snap.Store.NumMovies(), snap.Store.NumUsers(), snap.Store.NumRatings(), stats.Entries, snap.InstalledAt)

	ev := s.logger.Info().Str("snapshot_id", snap.ID)
	if prev != nil {
		ev = ev.Str("previous_snapshot_id", prev.ID)
		// Cached results are keyed by snapshot ID; the old ones can never hit again.
		if prev.ID != snap.ID && s.results != nil {
			s.results.Purge()
		}
	}
	ev.Msg("snapshot installed")
}

// Snapshot returns the serving snapshot, or nil before the first install.
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Reload builds a fresh snapshot and installs it. On failure the current
// snapshot keeps serving. Concurrent calls fail with ErrReloadInProgress.
func (s *Service) Reload(ctx context.Context, trigger string) (*Snapshot, error) {
	if s.builder == nil {
		return nil, ErrNoBuilder
	}
	if !s.reloadMu.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer s.reloadMu.Unlock()

	snap, err := s.builder.Build(ctx, trigger)
	metrics.RecordSnapshotBuild(trigger, err)
	if err != nil {
		s.logger.Error().Err(err).Str("trigger", trigger).Msg("snapshot build failed")
		return nil, err
	}

	if cur := s.snapshot.Load(); cur != nil && cur.ID == snap.ID {
		s.logger.Info().Str("snapshot_id", snap.ID).Msg("sources unchanged, keeping current snapshot")
		return cur, nil
	}

	s.Install(snap)
	s.reloads.Add(1)
	return snap, nil
}

// Health reports whether a snapshot is installed.
func (s *Service) Health() Health {
	snap := s.snapshot.Load()
	if snap == nil {
		return Health{}
	}
	installed := snap.InstalledAt
	return Health{
		Ready:       true,
		SnapshotID:  snap.ID,
		InstalledAt: &installed,
		Movies:      snap.Store.NumMovies(),
		Users:       snap.Store.NumUsers(),
		Ratings:     snap.Store.NumRatings(),
		Entries:     snap.Index.Stats().Entries,
	}
}

// Stats returns the request counters.
func (s *Service) Stats() Stats {
	return Stats{
		RequestCount: s.requestCount.Load(),
		CacheHits:    s.cacheHits.Load(),
		CacheMisses:  s.cacheMisses.Load(),
		Rejected:     s.rejected.Load(),
		ErrorCount:   s.errorCount.Load(),
		Reloads:      s.reloads.Load(),
	}
}

// Recommend ranks up to MaxResults unrated movies for ratings. The query
// is validated in order: distinct movie count, catalog membership, score
// scale.
func (s *Service) Recommend(ctx context.Context, ratings []catalog.MovieScore) (*Result, error) {
	start := time.Now()
	s.requestCount.Add(1)

	res, err := s.recommend(ctx, ratings)
	outcome := s.outcome(err)
	n := 0
	if res != nil {
		n = len(res.Recommendations)
	}
	metrics.RecordRecommendation(outcome, time.Since(start), n)

	return res, err
}

func (s *Service) recommend(ctx context.Context, ratings []catalog.MovieScore) (*Result, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotReady
	}

	query, err := validate(ratings, snap.Store)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(snap.ID, query)
	if s.results != nil {
		if cached, ok := s.results.Get(key); ok {
			s.cacheHits.Add(1)
			metrics.RecordCacheLookup(true)
			return &Result{SnapshotID: snap.ID, Recommendations: slices.Clone(cached)}, nil
		}
		s.cacheMisses.Add(1)
		metrics.RecordCacheLookup(false)
	}

	recs, err := s.rank(snap, query)
	if err != nil {
		var inv *predict.InvariantError
		if errors.As(err, &inv) {
			err = &InternalError{Err: err}
		}
		logger := s.logger.With().Str("snapshot_id", snap.ID).Logger()
		logger.Error().Err(err).Int("query_size", len(query)).Msg("recommendation failed")
		return nil, err
	}

	if s.results != nil {
		s.results.Add(key, slices.Clone(recs))
	}
	return &Result{SnapshotID: snap.ID, Recommendations: recs}, nil
}

// rank scores every candidate and returns the best MaxResults.
func (s *Service) rank(snap *Snapshot, query predict.Query) ([]Recommendation, error) {
	movieIDs := snap.Store.Matrix().MovieIDs
	candidates := make([]catalog.MovieID, 0, len(movieIDs))
	for _, id := range movieIDs {
		if _, rated := query[id]; !rated {
			candidates = append(candidates, id)
		}
	}

	preds, err := predict.PredictDetailed(query, snap.Index, candidates)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(preds))
	clamped := 0
	for _, p := range preds {
		m, ok := snap.Store.Movie(p.Movie)
		if !ok {
			return nil, &InternalError{Err: fmt.Errorf("candidate %d missing from catalog", p.Movie)}
		}
		if p.Clamped {
			clamped++
		}
		recs = append(recs, Recommendation{
			MovieID:        m.ID,
			Title:          m.Title,
			Year:           m.Year,
			Genres:         m.Genres,
			PredictedScore: p.Score,
			Clamped:        p.Clamped,
			RatingCount:    m.RatingCount,
			MeanRating:     m.MeanRating,
		})
	}
	metrics.RecordClamped(clamped)

	slices.SortFunc(recs, compareRecommendations)
	if len(recs) > MaxResults {
		recs = recs[:MaxResults:MaxResults]
	}
	return recs, nil
}

// compareRecommendations orders by predicted score descending, rating
// count descending, movie id ascending.
func compareRecommendations(a, b Recommendation) int {
	if c := cmp.Compare(b.PredictedScore, a.PredictedScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.RatingCount, a.RatingCount); c != 0 {
		return c
	}
	return cmp.Compare(a.MovieID, b.MovieID)
}

// Similar returns up to k neighbors of movie from the serving index.
func (s *Service) Similar(ctx context.Context, movie catalog.MovieID, k int) ([]SimilarMovie, string, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, "", ErrNotReady
	}
	if !snap.Store.HasMovie(movie) {
		return nil, snap.ID, &UnknownMovieError{MovieID: movie}
	}
	if k <= 0 || k > MaxSimilar {
		k = MaxSimilar
	}

	neighbors := snap.Index.Neighbors(movie, k)
	out := make([]SimilarMovie, 0, len(neighbors))
	for _, n := range neighbors {
		m, ok := snap.Store.Movie(n.Movie)
		if !ok {
			return nil, snap.ID, &InternalError{Err: fmt.Errorf("neighbor %d of movie %d missing from catalog", n.Movie, movie)}
		}
		out = append(out, SimilarMovie{
			MovieID:     m.ID,
			Title:       m.Title,
			Year:        m.Year,
			Genres:      m.Genres,
			Similarity:  n.Similarity,
			CoRaters:    n.CoRaters,
			RatingCount: m.RatingCount,
		})
	}
	return out, snap.ID, ctx.Err()
}

// outcome classifies err for metrics and bumps the matching counter.
func (s *Service) outcome(err error) string {
	var (
		insufficient *InsufficientRatingsError
		unknown      *UnknownMovieError
		invalid      *InvalidQueryError
	)
	switch {
	case err == nil:
		return metrics.OutcomeCompleted
	case errors.As(err, &insufficient):
		s.rejected.Add(1)
		return metrics.OutcomeInsufficientRatings
	case errors.As(err, &invalid):
		s.rejected.Add(1)
		return metrics.OutcomeInvalidQuery
	case errors.As(err, &unknown):
		s.rejected.Add(1)
		return metrics.OutcomeUnknownMovie
	case errors.Is(err, ErrNotReady):
		return metrics.OutcomeUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		s.errorCount.Add(1)
		return metrics.OutcomeInternalError
	}
}

// validate turns ratings into a query against store. Checks run in order:
// distinct movie count, catalog membership, score scale. A movie listed
// more than once keeps its last score.
func validate(ratings []catalog.MovieScore, store *catalog.Store) (predict.Query, error) {
	query := make(predict.Query, len(ratings))
	for _, r := range ratings {
		query[r.Movie] = r.Score
	}
	if len(query) < MinQueryRatings {
		return nil, &InsufficientRatingsError{Got: len(query), Required: MinQueryRatings}
	}

	for _, r := range ratings {
		if !store.HasMovie(r.Movie) {
			return nil, &UnknownMovieError{MovieID: r.Movie}
		}
	}

	for _, r := range ratings {
		if !catalog.ValidScore(r.Score) {
			return nil, &InvalidQueryError{
				MovieID: r.Movie,
				Reason:  fmt.Sprintf("score %v is not a half-star value between %.1f and %.1f", r.Score, catalog.MinScore, catalog.MaxScore),
			}
		}
	}
	return query, nil
}

// cacheKey canonicalises a validated query: entries sorted by movie id.
func cacheKey(snapshotID string, query predict.Query) string {
	movies := make([]catalog.MovieID, 0, len(query))
	for id := range query {
		movies = append(movies, id)
	}
	slices.Sort(movies)

	var sb strings.Builder
	sb.WriteString(snapshotID)
	for _, id := range movies {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(int(id)))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(query[id], 'f', -1, 64))
	}
	return sb.String()
}
