// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package similarity

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tomtom215/cinematch/internal/catalog"
)

var (
	// ErrInvariant marks a similarity index that violates its own
	// invariants; it indicates a defect in the build, not bad input.
	ErrInvariant = errors.New("similarity index invariant violated")

	// ErrStale means the index was not derived from the given store.
	ErrStale = errors.New("similarity index is stale")
)

// Neighbor is one retained similarity entry.
type Neighbor struct {
	Movie      catalog.MovieID `json:"movie_id"`
	Similarity float64         `json:"similarity"`
	CoRaters   int             `json:"co_raters"`
}

// Index maps each movie to its ordered top-K neighbors. It is immutable
// and safe for concurrent use.
type Index struct {
	buildID   string
	storeID   string
	cfg       Config
	builtAt   time.Time
	elapsed   time.Duration
	neighbors map[catalog.MovieID][]Neighbor
	entries   int
}

// Stats summarises an index.
type Stats struct {
	BuildID         string        `json:"build_id"`
	StoreID         string        `json:"store_id"`
	MoviesIndexed   int           `json:"movies_indexed"`
	Entries         int           `json:"entries"`
	MinCommonRaters int           `json:"min_common_raters"`
	Neighbors       int           `json:"neighbors"`
	BuiltAt         time.Time     `json:"built_at"`
	BuildDuration   time.Duration `json:"build_duration_ns"`
}

// ExpectedBuildID returns the BuildID an index built from storeID with cfg
// will carry. Workers is not part of the identity.
func ExpectedBuildID(storeID string, cfg Config) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|mcr=%d|k=%d", storeID, cfg.MinCommonRaters, cfg.Neighbors))
	return hex.EncodeToString(sum[:])[:16]
}

// NewIndex assembles an index from precomputed neighbor lists, for example
// ones restored from a cache, and checks every invariant the build
// guarantees.
func NewIndex(storeID string, cfg Config, neighbors map[catalog.MovieID][]Neighbor) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ix := &Index{
		buildID:   ExpectedBuildID(storeID, cfg),
		storeID:   storeID,
		cfg:       cfg,
		builtAt:   time.Now(),
		neighbors: make(map[catalog.MovieID][]Neighbor, len(neighbors)),
	}
	for movie, list := range neighbors {
		if len(list) == 0 {
			continue
		}
		if err := checkList(movie, list, cfg); err != nil {
			return nil, err
		}
		ix.neighbors[movie] = slices.Clone(list)
		ix.entries += len(list)
	}
	return ix, nil
}

// checkList verifies one neighbor list.
func checkList(movie catalog.MovieID, list []Neighbor, cfg Config) error {
	if len(list) > cfg.Neighbors {
		return fmt.Errorf("%w: movie %d has %d neighbors, limit %d", ErrInvariant, movie, len(list), cfg.Neighbors)
	}
	for i, n := range list {
		if n.Movie == movie {
			return fmt.Errorf("%w: movie %d lists itself", ErrInvariant, movie)
		}
		if math.IsNaN(n.Similarity) || n.Similarity < -1 || n.Similarity > 1 {
			return fmt.Errorf("%w: sim(%d,%d) = %v outside [-1, 1]", ErrInvariant, movie, n.Movie, n.Similarity)
		}
		if n.CoRaters < cfg.MinCommonRaters {
			return fmt.Errorf("%w: sim(%d,%d) has %d co-raters, minimum %d", ErrInvariant, movie, n.Movie, n.CoRaters, cfg.MinCommonRaters)
		}
		if i > 0 && compareNeighbors(list[i-1], n) >= 0 {
			return fmt.Errorf("%w: neighbors of movie %d out of order at position %d", ErrInvariant, movie, i)
		}
	}
	return nil
}

// compareNeighbors orders by similarity descending, then movie id ascending.
func compareNeighbors(a, b Neighbor) int {
	if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
		return c
	}
	return cmp.Compare(a.Movie, b.Movie)
}

// BuildID identifies this index.
func (ix *Index) BuildID() string { return ix.buildID }

// StoreID is the BuildID of the source store.
func (ix *Index) StoreID() string { return ix.storeID }

// Config returns the policy the index was built with.
func (ix *Index) Config() Config { return ix.cfg }

// Neighbors returns the first k neighbors of movie (all retained neighbors
// if k <= 0 or k exceeds the list). The slice is shared and must not be
// modified. Unknown movies and movies without qualifying neighbors yield
// an empty result.
func (ix *Index) Neighbors(movie catalog.MovieID, k int) []Neighbor {
	list := ix.neighbors[movie]
	if k > 0 && k < len(list) {
		return list[:k:k]
	}
	return list[:len(list):len(list)]
}

// Similarity looks up the retained similarity of a and b in either
// direction.
func (ix *Index) Similarity(a, b catalog.MovieID) (float64, bool) {
	for _, n := range ix.neighbors[a] {
		if n.Movie == b {
			return n.Similarity, true
		}
	}
	for _, n := range ix.neighbors[b] {
		if n.Movie == a {
			return n.Similarity, true
		}
	}
	return 0, false
}

// Movies returns the movies that have at least one neighbor, ascending.
func (ix *Index) Movies() []catalog.MovieID {
	out := make([]catalog.MovieID, 0, len(ix.neighbors))
	for m := range ix.neighbors {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Stats returns summary figures.
func (ix *Index) Stats() Stats {
	return Stats{
		BuildID:         ix.buildID,
		StoreID:         ix.storeID,
		MoviesIndexed:   len(ix.neighbors),
		Entries:         ix.entries,
		MinCommonRaters: ix.cfg.MinCommonRaters,
		Neighbors:       ix.cfg.Neighbors,
		BuiltAt:         ix.builtAt,
		BuildDuration:   ix.elapsed,
	}
}

// Verify checks that the index was derived from store and only references
// catalog movies.
func (ix *Index) Verify(store *catalog.Store) error {
	if ix.storeID != store.BuildID() {
		return fmt.Errorf("%w: built from store %s, current store is %s", ErrStale, ix.storeID, store.BuildID())
	}
	for movie, list := range ix.neighbors {
		if !store.HasMovie(movie) {
			return fmt.Errorf("%w: movie %d not in catalog", ErrStale, movie)
		}
		for _, n := range list {
			if !store.HasMovie(n.Movie) {
				return fmt.Errorf("%w: neighbor %d of movie %d not in catalog", ErrStale, n.Movie, movie)
			}
		}
	}
	return nil
}
