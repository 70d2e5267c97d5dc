// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package similarity

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cinematch/internal/catalog"
)

// roundingSlack is the tolerance for |sim| exceeding 1 through floating
// point rounding. Anything beyond it is a defect.
const roundingSlack = 1e-9

// Build computes the similarity index for store. It honours ctx
// cancellation and deadline; on any error no index is returned.
func Build(ctx context.Context, store *catalog.Store, cfg Config) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	mx := store.Matrix()
	numMovies := len(mx.MovieIDs)
	results := make([][]Neighbor, numMovies)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(numMovies, 1))

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			acc := newAccumulator(numMovies)
			for {
				i := int(next.Add(1) - 1)
				if i >= numMovies {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				list, err := acc.neighborsOf(mx, i, cfg)
				if err != nil {
					return err
				}
				results[i] = list
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}

	ix := &Index{
		buildID:   ExpectedBuildID(store.BuildID(), cfg),
		storeID:   store.BuildID(),
		cfg:       cfg,
		builtAt:   time.Now(),
		neighbors: make(map[catalog.MovieID][]Neighbor),
	}
	for i, list := range results {
		if len(list) == 0 {
			continue
		}
		ix.neighbors[mx.MovieIDs[i]] = list
		ix.entries += len(list)
	}
	ix.elapsed = ix.builtAt.Sub(start)

	return ix, nil
}

// accumulator is one worker's scratch space, indexed by movie.
type accumulator struct {
	count   []int32
	dot     []float64
	normI   []float64
	normJ   []float64
	touched []int32
}

func newAccumulator(numMovies int) *accumulator {
	return &accumulator{
		count: make([]int32, numMovies),
		dot:   make([]float64, numMovies),
		normI: make([]float64, numMovies),
		normJ: make([]float64, numMovies),
	}
}

// neighborsOf computes the top-K list for movie index i.
func (a *accumulator) neighborsOf(mx *catalog.Matrix, i int, cfg Config) ([]Neighbor, error) {
	raters := mx.ByMovie[i]
	if len(raters) < cfg.MinCommonRaters {
		return nil, nil
	}

	// Raters are visited in ascending user order, so every pair sum is
	// accumulated in the same order from either side.
	for _, r := range raters {
		mean := mx.UserMeans[r.Index]
		ci := float64(r.Score) - mean
		for _, other := range mx.ByUser[r.Index] {
			j := other.Index
			if int(j) == i {
				continue
			}
			cj := float64(other.Score) - mean
			if a.count[j] == 0 {
				a.touched = append(a.touched, j)
			}
			a.count[j]++
			a.dot[j] += ci * cj
			a.normI[j] += ci * ci
			a.normJ[j] += cj * cj
		}
	}

	var (
		list []Neighbor
		err  error
	)
	for _, j := range a.touched {
		if err == nil && int(a.count[j]) >= cfg.MinCommonRaters && a.normI[j] > 0 && a.normJ[j] > 0 {
			var sim float64
			sim, err = boundedSimilarity(a.dot[j], a.normI[j]*a.normJ[j])
			if err != nil {
				err = fmt.Errorf("movies %d and %d: %w", mx.MovieIDs[i], mx.MovieIDs[j], err)
			} else {
				list = append(list, Neighbor{
					Movie:      mx.MovieIDs[j],
					Similarity: sim,
					CoRaters:   int(a.count[j]),
				})
			}
		}
		a.count[j], a.dot[j], a.normI[j], a.normJ[j] = 0, 0, 0, 0
	}
	a.touched = a.touched[:0]
	if err != nil {
		return nil, err
	}

	slices.SortFunc(list, compareNeighbors)
	if len(list) > cfg.Neighbors {
		list = slices.Clip(list[:cfg.Neighbors])
	}
	return list, nil
}

// boundedSimilarity returns dot / sqrt(normProduct), absorbing rounding
// overshoot past ±1 and rejecting anything larger.
func boundedSimilarity(dot, normProduct float64) (float64, error) {
	sim := dot / math.Sqrt(normProduct)
	switch {
	case math.IsNaN(sim) || math.IsInf(sim, 0):
		return 0, fmt.Errorf("%w: non-finite similarity", ErrInvariant)
	case sim > 1+roundingSlack || sim < -1-roundingSlack:
		return 0, fmt.Errorf("%w: similarity %v outside [-1, 1]", ErrInvariant, sim)
	case sim > 1:
		return 1, nil
	case sim < -1:
		return -1, nil
	}
	return sim, nil
}
