// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// Reloader rebuilds and installs a snapshot; *recommend.Service
// implements it.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (*recommend.Snapshot, error)
}

// ReloadServiceConfig holds configuration for the reload service.
type ReloadServiceConfig struct {
	// Interval between scheduled reloads. Zero disables the ticker; manual
	// triggers still work.
	Interval time.Duration

	// MinGap is the minimum time between accepted manual triggers.
	MinGap time.Duration

	// FailureThreshold is the number of consecutive failed reloads that
	// opens the breaker. Default: 3
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open. Default: 5m
	OpenTimeout time.Duration
}

// ReloadService rebuilds the served snapshot on a ticker and on demand.
// Reloads run one at a time on the service goroutine behind a circuit
// breaker, so a broken data source is not rebuilt on every tick.
type ReloadService struct {
	reloader Reloader
	config   ReloadServiceConfig
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[*recommend.Snapshot]
	pending  chan struct{}
	running  atomic.Bool
	logger   zerolog.Logger
	name     string
}

// NewReloadService creates a reload service for reloader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReloadService(reloader Reloader, cfg ReloadServiceConfig, logger zerolog.Logger) *ReloadService {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Minute
	}

	limit := rate.Inf
	if cfg.MinGap > 0 {
		limit = rate.Every(cfg.MinGap)
	}

	s := &ReloadService{
		reloader: reloader,
		config:   cfg,
		limiter:  rate.NewLimiter(limit, 1),
		pending:  make(chan struct{}, 1),
		logger:   logger.With().Str("service", "reload").Logger(),
		name:     "reload-service",
	}

	metrics.SetReloadBreakerState(breakerStateValue(gobreaker.StateClosed))
	s.breaker = gobreaker.NewCircuitBreaker[*recommend.Snapshot](gobreaker.Settings{
		Name:        "snapshot-reload",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Overlapping reloads and shutdown say nothing about the source.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recommend.ErrReloadInProgress) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("reload circuit breaker state change")
			metrics.SetReloadBreakerState(breakerStateValue(to))
		},
	})
	return s
}

// Trigger queues a manual reload. It fails with recommend.ErrReloadThrottled
// inside the minimum gap and with recommend.ErrReloadInProgress while a
// reload is queued or running.
func (s *ReloadService) Trigger() error {
	if s.running.Load() || len(s.pending) > 0 {
		return recommend.ErrReloadInProgress
	}
	if !s.limiter.Allow() {
		return recommend.ErrReloadThrottled
	}
	select {
	case s.pending <- struct{}{}:
		return nil
	default:
		return recommend.ErrReloadInProgress
	}
}

// Serve implements suture.Service.
func (s *ReloadService) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Dur("min_gap", s.config.MinGap).
		Msg("reload service running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.reload(ctx, recommend.TriggerScheduled)
		case <-s.pending:
			s.reload(ctx, recommend.TriggerManual)
		}
	}
}

// reload runs one rebuild through the breaker. Failures are logged; the
// service keeps running and the current snapshot keeps serving.
func (s *ReloadService) reload(ctx context.Context, trigger string) {
	s.running.Store(true)
	defer s.running.Store(false)

	start := time.Now()
	snap, err := s.breaker.Execute(func() (*recommend.Snapshot, error) {
		return s.reloader.Reload(ctx, trigger)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn().Str("trigger", trigger).Msg("reload skipped, circuit open")
	case err != nil:
		s.logger.Error().Err(err).Str("trigger", trigger).
			Uint32("consecutive_failures", s.breaker.Counts().ConsecutiveFailures).
			Msg("snapshot reload failed, keeping current snapshot")
	default:
		s.logger.Info().Str("trigger", trigger).Str("snapshot_id", snap.ID).
			Dur("duration", time.Since(start)).Msg("snapshot reload complete")
	}
}

// BreakerState reports the breaker state ("closed", "half-open", "open").
func (s *ReloadService) BreakerState() string {
	return s.breaker.State().String()
}

// String names the service in supervisor events.
func (s *ReloadService) String() string {
	return s.name
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
