// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package similarity builds the immutable item-item similarity index.

# Similarity

Two movies are compared over their co-raters only. Each co-rater's score is
first centered on that rater's own mean, so harsh and lenient raters do not
bias the result:

	c(u,i) = r(u,i) - mean(u)
	sim(i,j) = Σ c(u,i)·c(u,j) / sqrt(Σ c(u,i)² · Σ c(u,j)²)      over u rating both

Pairs with fewer than MinCommonRaters co-raters, or whose centered vectors
vanish on the co-rated subset, have no defined similarity and are left out
of the index entirely. A stored 0 is a real, measured similarity.

# Build

For each movie i the build walks its raters, and for each rater walks the
other movies that rater scored, accumulating per-pair sums in dense scratch
arrays. Cost is proportional to Σ_u deg(u)² rather than to the number of
movie pairs. Movies are distributed across a bounded worker pool
(golang.org/x/sync/errgroup); each worker owns its scratch space, and results
land in per-movie slots, so no locking is needed. The context deadline is
checked between movies.

Contributions are always summed in ascending user order, which makes the
computed sim(i,j) and sim(j,i) bitwise identical.

# Retention

Each movie keeps its K most similar neighbors, sorted by similarity
descending with ties broken by the lower movie id.

# Identity

An Index records the BuildID of the catalog.Store it was derived from and a
BuildID of its own (a digest of the store ID, MinCommonRaters and K). Verify
reports an index that does not belong to a given store.
*/
package similarity
