// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package validation checks request DTOs with go-playground/validator.
//
// A single validator instance is shared process-wide because it caches
// struct metadata. Field names in messages come from the json tag so they
// match what the client sent:
//
//	type SimilarRequest struct {
//	    MovieID int `json:"movie_id" validate:"gt=0"`
//	    K       int `json:"k" validate:"omitempty,min=1,max=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // verr.Fields() lists each failure; verr.Error() joins them.
//	}
package validation
