// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"
)

// Cell is one entry of a sparse rating row: the dense index of the other
// axis (user or movie) and the score.
type Cell struct {
	Index int32
	Score float32
}

// Matrix is the index-addressed view of the rating data. Slices are shared
// with the Store and must not be modified.
type Matrix struct {
	// MovieIDs maps movie index to id, ascending.
	MovieIDs []MovieID

	// UserIDs maps user index to id, ascending.
	UserIDs []UserID

	// ByMovie holds each movie's raters sorted by user index.
	ByMovie [][]Cell

	// ByUser holds each user's ratings sorted by movie index.
	ByUser [][]Cell

	// UserMeans holds each user's mean score over all their ratings.
	UserMeans []float64
}

// Store is the immutable catalog plus rating corpus.
type Store struct {
	buildID  string
	loadedAt time.Time

	movies     []Movie // by movie index
	movieIndex map[MovieID]int32
	userIndex  map[UserID]int32
	matrix     Matrix
	numRatings int
}

// BuildID identifies the loaded content.
func (s *Store) BuildID() string { return s.buildID }

// LoadedAt is when the Store was constructed.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// NumMovies returns the catalog size.
func (s *Store) NumMovies() int { return len(s.movies) }

// NumUsers returns the number of distinct raters.
func (s *Store) NumUsers() int { return len(s.matrix.UserIDs) }

// NumRatings returns the number of ratings after deduplication.
func (s *Store) NumRatings() int { return s.numRatings }

// Matrix returns the shared index-addressed view.
func (s *Store) Matrix() *Matrix { return &s.matrix }

// HasMovie reports whether id is in the catalog.
func (s *Store) HasMovie(id MovieID) bool {
	_, ok := s.movieIndex[id]
	return ok
}

// MovieIndex returns the dense index of id.
func (s *Store) MovieIndex(id MovieID) (int, bool) {
	idx, ok := s.movieIndex[id]
	return int(idx), ok
}

// Movie returns the catalog entry for id.
func (s *Store) Movie(id MovieID) (Movie, bool) {
	idx, ok := s.movieIndex[id]
	if !ok {
		return Movie{}, false
	}
	return s.movies[idx], true
}

// MovieIDs returns every catalog id in ascending order.
func (s *Store) MovieIDs() []MovieID {
	return slices.Clone(s.matrix.MovieIDs)
}

// Movies returns a copy of the catalog in ascending id order.
func (s *Store) Movies() []Movie {
	return slices.Clone(s.movies)
}

// RatingCount returns how many users rated id (0 for unknown movies).
func (s *Store) RatingCount(id MovieID) int {
	idx, ok := s.movieIndex[id]
	if !ok {
		return 0
	}
	return len(s.matrix.ByMovie[idx])
}

// RatersOf returns the users who rated id, ascending.
func (s *Store) RatersOf(id MovieID) []UserID {
	idx, ok := s.movieIndex[id]
	if !ok {
		return nil
	}
	cells := s.matrix.ByMovie[idx]
	out := make([]UserID, len(cells))
	for i, c := range cells {
		out[i] = s.matrix.UserIDs[c.Index]
	}
	return out
}

// RatingOf returns user's score for movie, if any.
func (s *Store) RatingOf(user UserID, movie MovieID) (float64, bool) {
	u, ok := s.userIndex[user]
	if !ok {
		return 0, false
	}
	m, ok := s.movieIndex[movie]
	if !ok {
		return 0, false
	}
	cells := s.matrix.ByUser[u]
	i := sort.Search(len(cells), func(i int) bool { return cells[i].Index >= m })
	if i < len(cells) && cells[i].Index == m {
		return float64(cells[i].Score), true
	}
	return 0, false
}

// UserIDs returns every rater id in ascending order.
func (s *Store) UserIDs() []UserID {
	return slices.Clone(s.matrix.UserIDs)
}

// RatingsOf returns user's ratings in ascending movie id order.
func (s *Store) RatingsOf(user UserID) []MovieScore {
	u, ok := s.userIndex[user]
	if !ok {
		return nil
	}
	cells := s.matrix.ByUser[u]
	out := make([]MovieScore, len(cells))
	for i, c := range cells {
		out[i] = MovieScore{Movie: s.matrix.MovieIDs[c.Index], Score: float64(c.Score)}
	}
	return out
}

// UserMean returns the mean of user's scores.
func (s *Store) UserMean(user UserID) (float64, bool) {
	u, ok := s.userIndex[user]
	if !ok {
		return 0, false
	}
	return s.matrix.UserMeans[u], true
}

// pendingRating is the compact form a rating takes between parsing and
// indexing.
type pendingRating struct {
	user  int32
	movie int32 // dense movie index
	score float32
	row   int32
}

// builder accumulates validated input and produces a Store.
type builder struct {
	policy     DuplicatePolicy
	movies     []Movie
	movieIndex map[MovieID]int32
	ratings    []pendingRating
	sealed     bool
}

func newBuilder(policy DuplicatePolicy) *builder {
	return &builder{
		policy:     policy,
		movieIndex: make(map[MovieID]int32),
	}
}

// addMovie registers a catalog entry; row is used for error reporting.
func (b *builder) addMovie(m Movie, row int) error {
	if m.ID <= 0 || m.ID > maxID {
		return rowError("movies", row, "movieId", fmt.Errorf("%w: id %d out of range", ErrMalformed, m.ID))
	}
	if m.Title == "" {
		return rowError("movies", row, "title", ErrEmptyField)
	}
	if _, dup := b.movieIndex[m.ID]; dup {
		return rowError("movies", row, "movieId", fmt.Errorf("%w: %d", ErrDuplicateMovie, m.ID))
	}
	m.RatingCount, m.MeanRating = 0, 0
	b.movieIndex[m.ID] = -1
	b.movies = append(b.movies, m)
	return nil
}

// seal fixes the movie set and assigns dense indexes in ascending id order.
func (b *builder) seal() {
	slices.SortFunc(b.movies, func(x, y Movie) int { return int(x.ID) - int(y.ID) })
	for i, m := range b.movies {
		b.movieIndex[m.ID] = int32(i)
	}
	b.sealed = true
}

// addRating validates one rating against the sealed catalog.
func (b *builder) addRating(r Rating, row int) error {
	if !b.sealed {
		b.seal()
	}
	if r.UserID <= 0 || r.UserID > maxID {
		return rowError("ratings", row, "userId", fmt.Errorf("%w: id %d out of range", ErrMalformed, r.UserID))
	}
	idx, ok := b.movieIndex[r.MovieID]
	if !ok {
		return rowError("ratings", row, "movieId", fmt.Errorf("%w: %d", ErrUnknownMovie, r.MovieID))
	}
	if !ValidScore(r.Score) {
		return rowError("ratings", row, "rating", fmt.Errorf("%w: %v", ErrScoreOutOfRange, r.Score))
	}
	if r.Timestamp < 0 {
		return rowError("ratings", row, "timestamp", fmt.Errorf("%w: negative timestamp %d", ErrMalformed, r.Timestamp))
	}
	b.ratings = append(b.ratings, pendingRating{
		user:  int32(r.UserID),
		movie: idx,
		score: float32(r.Score),
		row:   int32(row),
	})
	return nil
}

// build sorts, deduplicates and indexes the accumulated ratings.
func (b *builder) build() (*Store, error) {
	if !b.sealed {
		b.seal()
	}
	if len(b.movies) == 0 {
		return nil, &DataLoadError{Table: "movies", Err: ErrEmptyTable}
	}

	slices.SortFunc(b.ratings, func(x, y pendingRating) int {
		if x.user != y.user {
			return int(x.user) - int(y.user)
		}
		if x.movie != y.movie {
			return int(x.movie) - int(y.movie)
		}
		return int(x.row) - int(y.row)
	})

	deduped, err := b.dedupe()
	if err != nil {
		return nil, err
	}

	s := &Store{
		loadedAt:   time.Now(),
		movies:     b.movies,
		movieIndex: b.movieIndex,
		userIndex:  make(map[UserID]int32),
		numRatings: len(deduped),
	}
	s.matrix.MovieIDs = make([]MovieID, len(b.movies))
	for i, m := range b.movies {
		s.matrix.MovieIDs[i] = m.ID
	}

	s.indexUsers(deduped)
	s.indexMovies()
	s.buildID = s.digest()

	return s, nil
}

// dedupe applies the duplicate policy to ratings sorted by (user, movie, row).
func (b *builder) dedupe() ([]pendingRating, error) {
	out := b.ratings[:0]
	for i, r := range b.ratings {
		if i > 0 {
			prev := &out[len(out)-1]
			if prev.user == r.user && prev.movie == r.movie {
				if b.policy == DuplicatesReject {
					return nil, rowError("ratings", int(r.row), "movieId", fmt.Errorf(
						"%w: user %d movie %d first seen at row %d",
						ErrDuplicateRating, r.user, b.movies[r.movie].ID, prev.row))
				}
				*prev = r
				continue
			}
		}
		out = append(out, r)
	}
	b.ratings = nil
	return out, nil
}

// indexUsers builds the user-major view and per-user means.
func (s *Store) indexUsers(ratings []pendingRating) {
	for start := 0; start < len(ratings); {
		end := start
		user := ratings[start].user
		for end < len(ratings) && ratings[end].user == user {
			end++
		}

		cells := make([]Cell, end-start)
		var sum float64
		for i, r := range ratings[start:end] {
			cells[i] = Cell{Index: r.movie, Score: r.score}
			sum += float64(r.score)
		}

		s.userIndex[UserID(user)] = int32(len(s.matrix.UserIDs))
		s.matrix.UserIDs = append(s.matrix.UserIDs, UserID(user))
		s.matrix.ByUser = append(s.matrix.ByUser, cells)
		s.matrix.UserMeans = append(s.matrix.UserMeans, sum/float64(len(cells)))

		start = end
	}
}

// indexMovies builds the movie-major view from the user-major one, which
// leaves each movie's raters in ascending user index order, and fills the
// movie aggregates.
func (s *Store) indexMovies() {
	counts := make([]int, len(s.movies))
	for _, cells := range s.matrix.ByUser {
		for _, c := range cells {
			counts[c.Index]++
		}
	}

	s.matrix.ByMovie = make([][]Cell, len(s.movies))
	for i, n := range counts {
		s.matrix.ByMovie[i] = make([]Cell, 0, n)
	}
	for u, cells := range s.matrix.ByUser {
		for _, c := range cells {
			s.matrix.ByMovie[c.Index] = append(s.matrix.ByMovie[c.Index], Cell{Index: int32(u), Score: c.Score})
		}
	}

	for i := range s.movies {
		raters := s.matrix.ByMovie[i]
		s.movies[i].RatingCount = len(raters)
		if len(raters) == 0 {
			continue
		}
		var sum float64
		for _, c := range raters {
			sum += float64(c.Score)
		}
		s.movies[i].MeanRating = sum / float64(len(raters))
	}
}

// digest hashes the canonical content: movies in id order, then ratings in
// (user, movie) order.
func (s *Store) digest() string {
	h := sha256.New()
	buf := make([]byte, 0, 64*1024)
	flush := func() {
		h.Write(buf) //nolint:errcheck // hash.Hash.Write never fails
		buf = buf[:0]
	}

	for _, m := range s.movies {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(m.ID))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Title)))
		buf = append(buf, m.Title...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Genres)))
		for _, g := range m.Genres {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(g)))
			buf = append(buf, g...)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Year))
		if len(buf) > 60*1024 {
			flush()
		}
	}
	for u, cells := range s.matrix.ByUser {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(s.matrix.UserIDs[u]))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(cells)))
		for _, c := range cells {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Index))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.Score))
			if len(buf) > 60*1024 {
				flush()
			}
		}
	}
	flush()

	return hex.EncodeToString(h.Sum(nil))[:16]
}

// NewStore builds a Store from in-memory records, applying the same
// validation as Load. Row numbers in errors are 1-based slice positions.
func NewStore(movies []Movie, ratings []Rating, policy DuplicatePolicy) (*Store, error) {
	b := newBuilder(policy)
	for i, m := range movies {
		if err := b.addMovie(m, i+1); err != nil {
			return nil, err
		}
	}
	b.seal()
	for i, r := range ratings {
		if err := b.addRating(r, i+1); err != nil {
			return nil, err
		}
	}
	return b.build()
}
