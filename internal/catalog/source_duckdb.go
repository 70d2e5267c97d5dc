// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	// DuckDB driver - columnar CSV scan for large rating tables
	_ "github.com/duckdb/duckdb-go/v2"
)

// duckdbSource scans a CSV file through an in-memory DuckDB instance. All
// columns are read as VARCHAR so that validation stays in one place.
type duckdbSource struct {
	db     *sql.DB
	rows   *sql.Rows
	header []string
	vals   []sql.NullString
	ptrs   []any
	rec    []string
}

func openDuckDBSource(ctx context.Context, path string) (*duckdbSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM read_csv(%s, header = true, delim = ',', quote = '\"', all_varchar = true)",
		quoteLiteral(path),
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	header, err := rows.Columns()
	if err != nil {
		rows.Close() //nolint:errcheck // best-effort cleanup on error path
		db.Close()   //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("read columns: %w", err)
	}

	s := &duckdbSource{
		db:     db,
		rows:   rows,
		header: header,
		vals:   make([]sql.NullString, len(header)),
		ptrs:   make([]any, len(header)),
		rec:    make([]string, len(header)),
	}
	for i := range s.vals {
		s.ptrs[i] = &s.vals[i]
	}
	return s, nil
}

func (s *duckdbSource) Header() []string { return s.header }

func (s *duckdbSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, io.EOF
	}
	if err := s.rows.Scan(s.ptrs...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, v := range s.vals {
		if v.Valid {
			s.rec[i] = v.String
		} else {
			s.rec[i] = ""
		}
	}
	return s.rec, nil
}

func (s *duckdbSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return rowsErr
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
