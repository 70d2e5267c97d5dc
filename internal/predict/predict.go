// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package predict scores candidate movies for a query rating vector with the
// weighted-deviation item-based predictor:
//
//	predicted(c) = mean(q) + Σ sim(c,n)·(q[n] - mean(q)) / Σ |sim(c,n)|
//
// where n ranges over the neighbors of c that the query rated. Candidates
// with no such neighbor, or whose similarities sum to zero in absolute
// value, have no prediction and are omitted. Results are clamped to the
// rating scale and the clamp is reported.
//
// Prediction is a pure function of its inputs.
package predict

import (
	"fmt"
	"math"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/similarity"
)

// NeighborSource supplies ordered neighbor lists; *similarity.Index
// implements it.
type NeighborSource interface {
	Neighbors(movie catalog.MovieID, k int) []similarity.Neighbor
}

// Query is a request-scoped movie -> score vector.
type Query map[catalog.MovieID]float64

// Mean returns the mean score of q (0 for an empty query).
func (q Query) Mean() float64 {
	if len(q) == 0 {
		return 0
	}
	var sum float64
	for _, s := range q {
		sum += s
	}
	return sum / float64(len(q))
}

// Prediction is one candidate's predicted score.
type Prediction struct {
	Movie catalog.MovieID `json:"movie_id"`

	// Score is the prediction clamped to [catalog.MinScore, catalog.MaxScore].
	Score float64 `json:"score"`

	// Raw is the unclamped predictor output.
	Raw float64 `json:"raw"`

	// Clamped reports Score != Raw.
	Clamped bool `json:"clamped"`

	// Support is how many query movies contributed.
	Support int `json:"support"`
}

// InvariantError reports an impossible intermediate value, which means the
// similarity index is defective.
type InvariantError struct {
	Movie    catalog.MovieID
	Neighbor catalog.MovieID
	Detail   string
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Neighbor != 0 {
		return fmt.Sprintf("prediction invariant violated for movie %d via neighbor %d: %s", e.Movie, e.Neighbor, e.Detail)
	}
	return fmt.Sprintf("prediction invariant violated for movie %d: %s", e.Movie, e.Detail)
}

// Predict returns the predicted score of every candidate that has one.
func Predict(query Query, index NeighborSource, candidates []catalog.MovieID) (map[catalog.MovieID]float64, error) {
	detailed, err := PredictDetailed(query, index, candidates)
	if err != nil {
		return nil, err
	}
	out := make(map[catalog.MovieID]float64, len(detailed))
	for _, p := range detailed {
		out[p.Movie] = p.Score
	}
	return out, nil
}

// PredictDetailed returns predictions in candidate order, omitting
// candidates without one.
func PredictDetailed(query Query, index NeighborSource, candidates []catalog.MovieID) ([]Prediction, error) {
	if len(query) == 0 {
		return nil, nil
	}
	mean := query.Mean()

	var out []Prediction
	for _, c := range candidates {
		p, ok, err := predictOne(query, mean, index, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// predictOne scores candidate c. ok is false when c has no prediction.
func predictOne(query Query, mean float64, index NeighborSource, c catalog.MovieID) (Prediction, bool, error) {
	var (
		num, den float64
		support  int
	)
	for _, n := range index.Neighbors(c, 0) {
		score, rated := query[n.Movie]
		if !rated {
			continue
		}
		if math.IsNaN(n.Similarity) || n.Similarity < -1 || n.Similarity > 1 {
			return Prediction{}, false, &InvariantError{
				Movie: c, Neighbor: n.Movie,
				Detail: fmt.Sprintf("similarity %v outside [-1, 1]", n.Similarity),
			}
		}
		num += n.Similarity * (score - mean)
		den += math.Abs(n.Similarity)
		support++
	}

	if support == 0 || den == 0 {
		return Prediction{}, false, nil
	}
	if den < 0 {
		return Prediction{}, false, &InvariantError{Movie: c, Detail: fmt.Sprintf("negative denominator %v", den)}
	}

	raw := mean + num/den
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Prediction{}, false, &InvariantError{Movie: c, Detail: "non-finite prediction"}
	}

	score := catalog.ClampScore(raw)
	return Prediction{
		Movie:   c,
		Score:   score,
		Raw:     raw,
		Clamped: score != raw,
		Support: support,
	}, true, nil
}
