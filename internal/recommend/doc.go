// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package recommend serves top-N movie recommendations for an ad-hoc set
// of ratings.
//
// # Architecture
//
// A Service holds the serving Snapshot (catalog store plus similarity
// index) behind an atomic pointer. Requests load the pointer once and work
// against that snapshot only, so a concurrent reload never mixes data from
// two builds. A Builder produces complete snapshots from the configured
// sources; Service.Reload builds one and swaps it in wholesale, leaving the
// old snapshot serving if anything fails.
//
// # Request Flow
//
//  1. Validate: at least MinQueryRatings distinct movies (a repeated movie
//     keeps its last score), every movie in the catalog, scores on the
//     rating scale.
//  2. Predict: every catalog movie outside the query is a candidate and is
//     scored by the predict package.
//  3. Rank: predicted score descending, then global rating count
//     descending, then movie id ascending; keep the first MaxResults.
//
// Each request ends in exactly one outcome counted in
// recommend_requests_total. Results are cached per snapshot and canonical
// query.
//
// # Usage
//
//	builder := recommend.NewBuilder(bcfg, cache, logger)
//	svc := recommend.NewService(recommend.DefaultConfig(), builder, logger)
//	if _, err := svc.Reload(ctx, recommend.TriggerStartup); err != nil {
//	    return err
//	}
//	res, err := svc.Recommend(ctx, ratings)
package recommend
