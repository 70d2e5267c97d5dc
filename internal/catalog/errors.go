// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes wrapped by DataLoadError.
var (
	ErrMissingColumn   = errors.New("required column missing")
	ErrEmptyField      = errors.New("required field empty")
	ErrMalformed       = errors.New("malformed value")
	ErrScoreOutOfRange = errors.New("score outside the valid discrete range")
	ErrUnknownMovie    = errors.New("movie not in catalog")
	ErrDuplicateMovie  = errors.New("duplicate movie id")
	ErrDuplicateRating = errors.New("duplicate rating for user and movie")
	ErrEmptyTable      = errors.New("table has no rows")
)

// DataLoadError reports malformed or missing source data. It is fatal at
// startup: no Store is produced.
type DataLoadError struct {
	// Table is "movies" or "ratings".
	Table string

	// Path is the source file, when there is one.
	Path string

	// Row is the 1-based data row (header excluded), 0 if not row-specific.
	Row int

	// Column is the offending column, if known.
	Column string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *DataLoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	b.WriteString(e.Table)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func rowError(table string, row int, column string, err error) *DataLoadError {
	return &DataLoadError{Table: table, Row: row, Column: column, Err: err}
}
