// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// ValueLogGC is satisfied by *badger.DB.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// BadgerGCService periodically reclaims space in the profile store's
// value log. Profiles are rewritten on every interaction, so stale
// versions pile up quickly without it.
type BadgerGCService struct {
	db           ValueLogGC
	interval     time.Duration
	discardRatio float64
	logger       zerolog.Logger
	name         string
}

// NewBadgerGCService creates the collector. Non-positive arguments take
// defaults of 5m and 0.5.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerGCService(db ValueLogGC, interval time.Duration, discardRatio float64, logger zerolog.Logger) *BadgerGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &BadgerGCService{
		db:           db,
		interval:     interval,
		discardRatio: discardRatio,
		logger:       logger.With().Str("service", "badger-gc").Logger(),
		name:         "badger-gc",
	}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

// collect rewrites value log files until badger reports nothing left to
// reclaim. Returns the number of files rewritten.
func (s *BadgerGCService) collect(ctx context.Context) int {
	rewritten := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.discardRatio)
		if err == nil {
			rewritten++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			s.logger.Warn().Err(err).Msg("value log gc failed")
		}
		break
	}
	if rewritten > 0 {
		s.logger.Debug().Int("rewritten", rewritten).Msg("value log gc reclaimed space")
	}
	return rewritten
}

// String names the service in supervisor logs.
func (s *BadgerGCService) String() string {
	return s.name
}
