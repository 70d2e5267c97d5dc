// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Backend selects how source tables are read.
type Backend string

const (
	BackendCSV    Backend = "csv"
	BackendDuckDB Backend = "duckdb"
)

// Sources names the two input tables.
type Sources struct {
	MoviesPath  string
	RatingsPath string
}

// Options controls loading.
type Options struct {
	Backend    Backend
	Duplicates DuplicatePolicy
}

// ctxCheckInterval is how many rows are read between cancellation checks.
const ctxCheckInterval = 1 << 16

// noGenres is MovieLens' marker for an empty genre set.
const noGenres = "(no genres listed)"

var titleYear = regexp.MustCompile(`\((\d{4})\)\s*$`)

// Load reads and validates both tables and builds the Store. Any schema or
// range violation returns a *DataLoadError.
func Load(ctx context.Context, src Sources, opts Options) (*Store, error) {
	movies, err := openSource(ctx, src.MoviesPath, opts.Backend)
	if err != nil {
		return nil, &DataLoadError{Table: "movies", Path: src.MoviesPath, Err: err}
	}
	defer movies.Close() //nolint:errcheck // read-only source

	ratings, err := openSource(ctx, src.RatingsPath, opts.Backend)
	if err != nil {
		return nil, &DataLoadError{Table: "ratings", Path: src.RatingsPath, Err: err}
	}
	defer ratings.Close() //nolint:errcheck // read-only source

	store, err := load(ctx, movies, ratings, opts.Duplicates)
	if err != nil {
		var dle *DataLoadError
		if errors.As(err, &dle) && dle.Path == "" {
			if dle.Table == "movies" {
				dle.Path = src.MoviesPath
			} else {
				dle.Path = src.RatingsPath
			}
		}
		return nil, err
	}
	return store, nil
}

// LoadReaders builds a Store from CSV streams.
func LoadReaders(ctx context.Context, movies, ratings io.Reader, policy DuplicatePolicy) (*Store, error) {
	ms, err := newCSVSource(movies, nil)
	if err != nil {
		return nil, &DataLoadError{Table: "movies", Err: err}
	}
	rs, err := newCSVSource(ratings, nil)
	if err != nil {
		return nil, &DataLoadError{Table: "ratings", Err: err}
	}
	return load(ctx, ms, rs, policy)
}

func openSource(ctx context.Context, path string, backend Backend) (rowSource, error) {
	if path == "" {
		return nil, errors.New("no path configured")
	}
	switch backend {
	case BackendDuckDB:
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return openDuckDBSource(ctx, path)
	case BackendCSV, "":
		f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
		if err != nil {
			return nil, err
		}
		src, err := newCSVSource(f, f)
		if err != nil {
			f.Close() //nolint:errcheck // best-effort cleanup on error path
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func load(ctx context.Context, movies, ratings rowSource, policy DuplicatePolicy) (*Store, error) {
	b := newBuilder(policy)

	if err := readMovies(ctx, movies, b); err != nil {
		return nil, err
	}
	b.seal()

	n, err := readRatings(ctx, ratings, b)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &DataLoadError{Table: "ratings", Err: ErrEmptyTable}
	}

	return b.build()
}

func readMovies(ctx context.Context, src rowSource, b *builder) error {
	cols, err := resolveColumns("movies", src.Header(), movieColumns)
	if err != nil {
		return err
	}

	for row := 1; ; row++ {
		if row%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return rowError("movies", row, "", err)
		}

		m, err := parseMovie(rec, cols, row)
		if err != nil {
			return err
		}
		if err := b.addMovie(m, row); err != nil {
			return err
		}
	}
}

func parseMovie(rec []string, cols []int, row int) (Movie, error) {
	var m Movie

	id, err := requiredInt("movies", rec, cols[0], row, "movieId")
	if err != nil {
		return m, err
	}
	m.ID = MovieID(id)

	m.Title = strings.TrimSpace(rec[cols[1]])
	if m.Title == "" {
		return m, rowError("movies", row, "title", ErrEmptyField)
	}

	genres := strings.TrimSpace(rec[cols[2]])
	if genres == "" {
		return m, rowError("movies", row, "genres", ErrEmptyField)
	}
	if genres != noGenres {
		for _, g := range strings.Split(genres, "|") {
			if g = strings.TrimSpace(g); g != "" {
				m.Genres = append(m.Genres, g)
			}
		}
	}

	if cols[3] >= 0 && strings.TrimSpace(rec[cols[3]]) != "" {
		year, err := strconv.Atoi(strings.TrimSpace(rec[cols[3]]))
		if err != nil || year < 0 {
			return m, rowError("movies", row, "year", fmt.Errorf("%w: %q", ErrMalformed, rec[cols[3]]))
		}
		m.Year = year
	} else if match := titleYear.FindStringSubmatch(m.Title); match != nil {
		m.Year, _ = strconv.Atoi(match[1]) //nolint:errcheck // regexp guarantees four digits
	}

	return m, nil
}

func readRatings(ctx context.Context, src rowSource, b *builder) (int, error) {
	cols, err := resolveColumns("ratings", src.Header(), ratingColumns)
	if err != nil {
		return 0, err
	}

	row := 1
	for ; ; row++ {
		if row%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, rowError("ratings", row, "", err)
		}

		r, err := parseRating(rec, cols, row)
		if err != nil {
			return 0, err
		}
		if err := b.addRating(r, row); err != nil {
			return 0, err
		}
	}
	return row - 1, nil
}

func parseRating(rec []string, cols []int, row int) (Rating, error) {
	var r Rating

	user, err := requiredInt("ratings", rec, cols[0], row, "userId")
	if err != nil {
		return r, err
	}
	movie, err := requiredInt("ratings", rec, cols[1], row, "movieId")
	if err != nil {
		return r, err
	}

	raw := strings.TrimSpace(rec[cols[2]])
	if raw == "" {
		return r, rowError("ratings", row, "rating", ErrEmptyField)
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return r, rowError("ratings", row, "rating", fmt.Errorf("%w: %q", ErrMalformed, raw))
	}

	ts, err := requiredInt("ratings", rec, cols[3], row, "timestamp")
	if err != nil {
		return r, err
	}

	r.UserID = UserID(user)
	r.MovieID = MovieID(movie)
	r.Score = score
	r.Timestamp = ts
	return r, nil
}

func requiredInt(table string, rec []string, col, row int, name string) (int64, error) {
	raw := strings.TrimSpace(rec[col])
	if raw == "" {
		return 0, rowError(table, row, name, ErrEmptyField)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, rowError(table, row, name, fmt.Errorf("%w: %q", ErrMalformed, raw))
	}
	return v, nil
}
