// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/recommend/clustering"
)

// ClusteringEngine is the part of *clustering.Engine the scheduler drives.
type ClusteringEngine interface {
	RunPass(ctx context.Context) (clustering.Result, error)
	Triggered() <-chan struct{}
	Interval() time.Duration
}

// ClusteringService schedules clustering passes: one on start, one per
// interval tick and one per trigger. Each pass runs in its own goroutine
// so a new pass can supersede a slow one; the engine cancels the older
// pass and keeps only the newest result.
type ClusteringService struct {
	engine     ClusteringEngine
	runOnStart bool
	logger     zerolog.Logger
	name       string
}

// NewClusteringService creates the scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClusteringService(engine ClusteringEngine, runOnStart bool, logger zerolog.Logger) *ClusteringService {
	return &ClusteringService{
		engine:     engine,
		runOnStart: runOnStart,
		logger:     logger.With().Str("service", "clustering").Logger(),
		name:       "clustering-scheduler",
	}
}

// Serve implements suture.Service.
func (s *ClusteringService) Serve(ctx context.Context) error {
	interval := s.engine.Interval()
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	start := func(reason string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runPass(ctx, reason)
		}()
	}

	s.logger.Info().Dur("interval", interval).Msg("clustering scheduler started")
	if s.runOnStart {
		start("startup")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("clustering scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			start("schedule")
		case <-s.engine.Triggered():
			start("trigger")
		}
	}
}

func (s *ClusteringService) runPass(ctx context.Context, reason string) {
	result, err := s.engine.RunPass(ctx)
	switch {
	case err == nil:
		s.logger.Debug().
			Str("reason", reason).
			Uint64("generation", result.Generation).
			Str("status", string(result.Status)).
			Msg("clustering pass finished")
	case errors.Is(err, clustering.ErrSuperseded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		s.logger.Debug().Err(err).Str("reason", reason).Msg("clustering pass abandoned")
	default:
		s.logger.Warn().Err(err).Str("reason", reason).Msg("clustering pass failed")
	}
}

// String names the service in supervisor logs.
func (s *ClusteringService) String() string {
	return s.name
}
