// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/wayfinder/internal/recommend/clustering"
)

var (
	_ suture.Service = (*ClusteringService)(nil)
	_ suture.Service = (*IntakeService)(nil)
	_ suture.Service = (*BadgerGCService)(nil)
)

type mockClusteringEngine struct {
	interval time.Duration
	trigger  chan struct{}
	passes   chan struct{}
	calls    atomic.Int32
	err      error
}

func newMockClusteringEngine(interval time.Duration) *mockClusteringEngine {
	return &mockClusteringEngine{
		interval: interval,
		trigger:  make(chan struct{}, 1),
		passes:   make(chan struct{}, 16),
	}
}

func (m *mockClusteringEngine) RunPass(ctx context.Context) (clustering.Result, error) {
	n := m.calls.Add(1)
	select {
	case m.passes <- struct{}{}:
	default:
	}
	if m.err != nil {
		return clustering.Result{}, m.err
	}
	return clustering.Result{Generation: uint64(n), Status: clustering.StatusOK}, nil
}

func (m *mockClusteringEngine) Triggered() <-chan struct{} { return m.trigger }
func (m *mockClusteringEngine) Interval() time.Duration    { return m.interval }

func waitPass(t *testing.T, m *mockClusteringEngine) {
	t.Helper()
	select {
	case <-m.passes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a clustering pass")
	}
}

func TestClusteringService_Schedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		runOnStart bool
		interval   time.Duration
		trigger    bool
	}{
		{name: "startup pass", runOnStart: true, interval: time.Hour},
		{name: "interval tick", interval: 20 * time.Millisecond},
		{name: "trigger", interval: time.Hour, trigger: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newMockClusteringEngine(tt.interval)
			svc := NewClusteringService(engine, tt.runOnStart, zerolog.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()

			if tt.trigger {
				engine.trigger <- struct{}{}
			}
			waitPass(t, engine)

			cancel()
			select {
			case err := <-done:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("Serve() = %v, want context.Canceled", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return after cancel")
			}
		})
	}
}

func TestClusteringService_FailedPassKeepsRunning(t *testing.T) {
	t.Parallel()

	engine := newMockClusteringEngine(10 * time.Millisecond)
	engine.err = errors.New("snapshot profiles: backend down")
	svc := NewClusteringService(engine, true, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitPass(t, engine)
	waitPass(t, engine)
	if engine.calls.Load() < 2 {
		t.Errorf("calls = %d, want passes to continue after a failure", engine.calls.Load())
	}
}

func TestClusteringService_String(t *testing.T) {
	t.Parallel()
	svc := NewClusteringService(newMockClusteringEngine(time.Hour), false, zerolog.Nop())
	if svc.String() != "clustering-scheduler" {
		t.Errorf("String() = %q", svc.String())
	}
}

type mockIntake struct {
	err      error
	blocking bool
}

func (m *mockIntake) Run(ctx context.Context) error {
	if m.blocking {
		<-ctx.Done()
		return nil
	}
	return m.err
}

func TestIntakeService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("shutdown reports context error", func(t *testing.T) {
		t.Parallel()
		svc := NewIntakeService(&mockIntake{blocking: true})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})

	t.Run("router error is returned for restart", func(t *testing.T) {
		t.Parallel()
		routerErr := errors.New("router closed")
		svc := NewIntakeService(&mockIntake{err: routerErr})
		if err := svc.Serve(context.Background()); !errors.Is(err, routerErr) {
			t.Errorf("Serve() = %v, want %v", err, routerErr)
		}
	})

	t.Run("early clean exit is an error", func(t *testing.T) {
		t.Parallel()
		svc := NewIntakeService(&mockIntake{})
		if err := svc.Serve(context.Background()); err == nil {
			t.Error("Serve() = nil, want error")
		}
	})
}

type mockValueLog struct {
	results []error
	calls   atomic.Int32
}

func (m *mockValueLog) RunValueLogGC(float64) error {
	n := int(m.calls.Add(1)) - 1
	if n < len(m.results) {
		return m.results[n]
	}
	return badger.ErrNoRewrite
}

func TestBadgerGCService_Collect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		results   []error
		wantFiles int
		wantCalls int32
	}{
		{name: "nothing to reclaim", wantFiles: 0, wantCalls: 1},
		{name: "rewrites until no rewrite", results: []error{nil, nil}, wantFiles: 2, wantCalls: 3},
		{name: "rejected stops", results: []error{nil, badger.ErrRejected}, wantFiles: 1, wantCalls: 2},
		{name: "unexpected error stops", results: []error{errors.New("disk full")}, wantFiles: 0, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := &mockValueLog{results: tt.results}
			svc := NewBadgerGCService(db, time.Minute, 0.5, zerolog.Nop())

			if got := svc.collect(context.Background()); got != tt.wantFiles {
				t.Errorf("collect() = %d, want %d", got, tt.wantFiles)
			}
			if got := db.calls.Load(); got != tt.wantCalls {
				t.Errorf("RunValueLogGC calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestBadgerGCService_Defaults(t *testing.T) {
	t.Parallel()
	svc := NewBadgerGCService(&mockValueLog{}, 0, 2, zerolog.Nop())
	if svc.interval != 5*time.Minute || svc.discardRatio != 0.5 {
		t.Errorf("defaults = %v / %v, want 5m / 0.5", svc.interval, svc.discardRatio)
	}
}

func TestBadgerGCService_ServeTicks(t *testing.T) {
	t.Parallel()

	db := &mockValueLog{}
	svc := NewBadgerGCService(db, 10*time.Millisecond, 0.5, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if db.calls.Load() == 0 {
		t.Error("value log gc never ran")
	}
}
