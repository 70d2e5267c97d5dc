// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package evaluate measures offline recommendation quality as Precision@K.

For a sample of users, each user's ratings are shuffled and split into a
query part and a holdout part. The holdout ratings of every sampled user are
removed from the corpus, a similarity index is built from what remains, and
each user's query part is sent through the same recommend.Service the
server uses. A user's precision is

	|top-K recommendations ∩ holdout movies scored >= Threshold| / K

and the report carries the mean over evaluated users. Users with fewer than
recommend.MinQueryRatings ratings, or whose query part would be too small to
be accepted by the service, are counted as skipped.

Sampling and splits are driven by a seeded math/rand source, so a run is
reproducible for the same corpus and Config.
*/
package evaluate
