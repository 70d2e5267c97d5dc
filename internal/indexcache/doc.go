// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package indexcache persists similarity indexes in BadgerDB so that a
// restart against unchanged data skips the pairwise build.
//
// Entries are keyed by the index build ID, which already encodes the
// source store digest and the index policy, so a lookup can never return
// an index built from different data or settings.
//
// # Storage Format
//
// Each value is a gob-encoded envelope holding metadata, a SHA-256
// checksum of the raw payload and the gzip-compressed gob payload. A
// checksum mismatch or a payload that fails the index invariants is
// reported as ErrCorrupt and the entry is ignored.
package indexcache
