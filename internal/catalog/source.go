// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// rowSource yields the records of one table. Next returns io.EOF after the
// last record. Records may be reused between calls.
type rowSource interface {
	Header() []string
	Next() ([]string, error)
	Close() error
}

// csvSource streams a CSV table with encoding/csv.
type csvSource struct {
	r      *csv.Reader
	closer io.Closer
	header []string
}

func newCSVSource(r io.Reader, closer io.Closer) (*csvSource, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row: %w", ErrEmptyTable)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	return &csvSource{r: cr, closer: closer, header: append([]string(nil), header...)}, nil
}

func (s *csvSource) Header() []string { return s.header }

func (s *csvSource) Next() ([]string, error) {
	rec, err := s.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, pe.Err)
		}
		return nil, err
	}
	return rec, nil
}

func (s *csvSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// columnSpec describes one schema column.
type columnSpec struct {
	name     string
	required bool
}

var movieColumns = []columnSpec{
	{name: "movieId", required: true},
	{name: "title", required: true},
	{name: "genres", required: true},
	{name: "year", required: false},
}

var ratingColumns = []columnSpec{
	{name: "userId", required: true},
	{name: "movieId", required: true},
	{name: "rating", required: true},
	{name: "timestamp", required: true},
}

// normalizeColumn folds case, underscores and a UTF-8 BOM so that
// "movieId", "movie_id" and "MovieID" match.
func normalizeColumn(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ToLower(s)
}

// resolveColumns maps each spec column to its position in header, -1 for an
// absent optional column.
func resolveColumns(table string, header []string, specs []columnSpec) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[normalizeColumn(h)] = i
	}

	out := make([]int, len(specs))
	for i, spec := range specs {
		pos, ok := positions[normalizeColumn(spec.name)]
		switch {
		case ok:
			out[i] = pos
		case spec.required:
			return nil, &DataLoadError{Table: table, Column: spec.name, Err: ErrMissingColumn}
		default:
			out[i] = -1
		}
	}
	return out, nil
}
