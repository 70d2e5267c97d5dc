// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"
)

// Health handles GET /api/v1/health. It always answers 200 and reports
// readiness in the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	health := h.svc.Health()

	status := "healthy"
	if !health.Ready {
		status = "starting"
	}

	respondSuccess(w, r, start, map[string]any{
		"status":   status,
		"uptime":   time.Since(h.startTime).Seconds(),
		"snapshot": health,
	})
}

// HealthLive handles liveness probes: 200 whenever the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, time.Now(), map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probes: 503 until a snapshot is installed.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	health := h.svc.Health()

	if !health.Ready {
		respondError(w, r, start, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "no snapshot installed", nil)
		return
	}
	respondSuccess(w, r, start, map[string]any{
		"ready":       true,
		"snapshot_id": health.SnapshotID,
	})
}
