// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/recommend"
)

type fakeReloader struct {
	mu       sync.Mutex
	err      error
	triggers []string
	calls    chan string
}

func newFakeReloader(err error) *fakeReloader {
	return &fakeReloader{err: err, calls: make(chan string, 64)}
}

func (f *fakeReloader) Reload(_ context.Context, trigger string) (*recommend.Snapshot, error) {
	f.mu.Lock()
	f.triggers = append(f.triggers, trigger)
	err := f.err
	f.mu.Unlock()

	select {
	case f.calls <- trigger:
	default:
	}
	if err != nil {
		return nil, err
	}
	return &recommend.Snapshot{ID: "snap-1"}, nil
}

func (f *fakeReloader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggers)
}

func runService(t *testing.T, svc *ReloadService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitCall(t *testing.T, f *fakeReloader) string {
	t.Helper()
	select {
	case trigger := <-f.calls:
		return trigger
	case <-time.After(2 * time.Second):
		t.Fatal("reload was not called")
		return ""
	}
}

var _ suture.Service = (*ReloadService)(nil)

func TestReloadServiceManualTrigger(t *testing.T) {
	t.Parallel()

	f := newFakeReloader(nil)
	svc := NewReloadService(f, ReloadServiceConfig{}, zerolog.Nop())
	runService(t, svc)

	if err := svc.Trigger(); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got := waitCall(t, f); got != recommend.TriggerManual {
		t.Errorf("trigger = %q, want %q", got, recommend.TriggerManual)
	}
}

func TestReloadServiceScheduled(t *testing.T) {
	t.Parallel()

	f := newFakeReloader(nil)
	svc := NewReloadService(f, ReloadServiceConfig{Interval: 10 * time.Millisecond}, zerolog.Nop())
	runService(t, svc)

	for range 2 {
		if got := waitCall(t, f); got != recommend.TriggerScheduled {
			t.Errorf("trigger = %q, want %q", got, recommend.TriggerScheduled)
		}
	}
}

func TestReloadServiceTriggerWhilePending(t *testing.T) {
	t.Parallel()

	// Not serving: the first trigger stays queued.
	svc := NewReloadService(newFakeReloader(nil), ReloadServiceConfig{}, zerolog.Nop())

	if err := svc.Trigger(); err != nil {
		t.Fatalf("first Trigger() error = %v", err)
	}
	if err := svc.Trigger(); !errors.Is(err, recommend.ErrReloadInProgress) {
		t.Errorf("second Trigger() error = %v, want ErrReloadInProgress", err)
	}
}

func TestReloadServiceMinGap(t *testing.T) {
	t.Parallel()

	f := newFakeReloader(nil)
	svc := NewReloadService(f, ReloadServiceConfig{MinGap: time.Hour}, zerolog.Nop())
	runService(t, svc)

	if err := svc.Trigger(); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	waitCall(t, f)

	// Once the reload has finished, the next trigger hits the gap.
	deadline := time.Now().Add(2 * time.Second)
	var err error
	for time.Now().Before(deadline) {
		if err = svc.Trigger(); !errors.Is(err, recommend.ErrReloadInProgress) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !errors.Is(err, recommend.ErrReloadThrottled) {
		t.Errorf("Trigger() error = %v, want ErrReloadThrottled", err)
	}
	if f.count() != 1 {
		t.Errorf("reloads = %d, want 1", f.count())
	}
}

// Not parallel: asserts on the process-wide breaker gauge.
func TestReloadServiceBreakerOpens(t *testing.T) {
	f := newFakeReloader(errors.New("ratings.csv: no such file"))
	svc := NewReloadService(f, ReloadServiceConfig{
		Interval:         5 * time.Millisecond,
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	}, zerolog.Nop())

	if got := testutil.ToFloat64(metrics.ReloadBreakerState); got != 0 {
		t.Fatalf("breaker gauge = %v, want 0", got)
	}

	runService(t, svc)
	waitCall(t, f)
	waitCall(t, f)

	deadline := time.Now().Add(2 * time.Second)
	for svc.BreakerState() != "open" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.BreakerState() != "open" {
		t.Fatalf("breaker state = %q, want open", svc.BreakerState())
	}
	if got := testutil.ToFloat64(metrics.ReloadBreakerState); got != 2 {
		t.Errorf("breaker gauge = %v, want 2", got)
	}

	// Further ticks are rejected by the open breaker without reaching the source.
	time.Sleep(50 * time.Millisecond)
	if f.count() != 2 {
		t.Errorf("reloads = %d, want 2", f.count())
	}
}

func TestReloadServiceInProgressDoesNotTrip(t *testing.T) {
	t.Parallel()

	f := newFakeReloader(recommend.ErrReloadInProgress)
	svc := NewReloadService(f, ReloadServiceConfig{
		Interval:         5 * time.Millisecond,
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
	}, zerolog.Nop())
	runService(t, svc)

	for range 3 {
		waitCall(t, f)
	}
	if svc.BreakerState() != "closed" {
		t.Errorf("breaker state = %q, want closed", svc.BreakerState())
	}
}
