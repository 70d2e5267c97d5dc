// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package catalog loads the movie catalog and the historical rating corpus into
an immutable in-memory Store.

# Sources

Two tables are read, each with a header row:

	movies:  movieId,title,genres[,year]
	ratings: userId,movieId,rating,timestamp

Columns are matched by name (case and underscores ignored); unknown columns
such as posterUrl are skipped. When the movie table has no year column the
year is taken from a trailing "(YYYY)" in the title.

Two backends read the files: "csv" streams them with encoding/csv and
"duckdb" scans them with DuckDB's read_csv, which is considerably faster on
the full MovieLens 25M corpus. Both feed the same validation pipeline and
produce identical Stores.

# Validation

Every row is checked against a fixed schema. Missing or empty fields,
unparseable numbers, scores outside the discrete set {0.5, 1.0, ..., 5.0},
ratings for movies absent from the catalog and duplicate movie ids all fail
the load with a *DataLoadError naming the table, the 1-based data row and the
column. Repeated (user, movie) ratings are handled by DuplicatePolicy.

# Views

The Store keeps two sparse views of the rating matrix: user -> {movie: score}
and movie -> {user: score}, both sorted by dense index, plus each user's mean
score. Matrix exposes them to the similarity build without copying.

# Build Identity

BuildID is a SHA-256 digest of the loaded content (movies and the
deduplicated ratings), so the same data always yields the same ID regardless
of backend or row order. Derived structures record it to detect staleness.

# Thread Safety

A Store is never mutated after construction and is safe for concurrent use.
*/
package catalog
