// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package profile owns user interest profiles.
//
// The Store serializes writers per user with a keyed mutex, so ingests for
// different users never contend. Records live in a pluggable Backend
// (in-memory or BadgerDB). Category weights decay exponentially with a
// configurable half-life and are renormalized so the top category is 1.
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
)

// InterestClassifier turns an interaction into interests.
type InterestClassifier interface {
	Classify(in *recommend.Interaction) []recommend.Interest
}

// Store owns the mapping from user ID to profile. It is safe for concurrent use.
type Store struct {
	cfg        Config
	backend    Backend
	classifier InterestClassifier
	locks      *keyedMutex
	now        func() time.Time
	location   *time.Location
	logger     zerolog.Logger
}

// NewStore creates a profile store. classifier may be nil when
// IngestInteraction is not used.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(cfg Config, backend Backend, classifier InterestClassifier, logger zerolog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile config: %w", err)
	}
	if backend == nil {
		backend = NewMemoryBackend()
	}

	return &Store{
		cfg:        cfg,
		backend:    backend,
		classifier: classifier,
		locks:      newKeyedMutex(),
		now:        time.Now,
		location:   time.UTC,
		logger:     logger.With().Str("component", "profile").Logger(),
	}, nil
}

// WithClock sets the clock used for decay and timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// WithLocation sets the time zone used to bucket interests by time of day.
// It should match the destination locale of the context engine.
func (s *Store) WithLocation(loc *time.Location) *Store {
	if loc != nil {
		s.location = loc
	}
	return s
}

// Ingest appends an interest to the user's log and returns the updated
// profile. The profile is created on first use. Unknown categories are
// coerced to unknown; only an empty user ID is rejected.
//
//nolint:gocritic // hugeParam: Interest is an immutable value
func (s *Store) Ingest(ctx context.Context, userID string, interest recommend.Interest) (*recommend.UserProfile, error) {
	return s.ingest(ctx, userID, []recommend.Interest{interest})
}

// IngestInteraction validates and classifies an interaction, then ingests
// every resulting interest under a single lock acquisition.
func (s *Store) IngestInteraction(ctx context.Context, in *recommend.Interaction) (*recommend.UserProfile, error) {
	if err := in.Validate(); err != nil {
		metrics.RecordIngest("invalid", 0)
		return nil, err
	}
	if s.classifier == nil {
		return nil, errors.New("profile store has no classifier")
	}
	return s.ingest(ctx, in.UserID, s.classifier.Classify(in))
}

func (s *Store) ingest(ctx context.Context, userID string, interests []recommend.Interest) (*recommend.UserProfile, error) {
	start := time.Now()
	userID = strings.TrimSpace(userID)
	if userID == "" {
		metrics.RecordIngest("invalid", time.Since(start))
		return nil, fmt.Errorf("%w: user_id is required", recommend.ErrInvalidArgument)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now()
	p, created, err := s.load(ctx, userID)
	if err != nil {
		metrics.RecordIngest("error", time.Since(start))
		return nil, err
	}

	for i := range interests {
		p.InterestLog = append(p.InterestLog, s.sanitize(&interests[i], now))
	}
	if over := len(p.InterestLog) - s.cfg.Capacity; over > 0 {
		// Copy so the evicted prefix is released.
		p.InterestLog = append([]recommend.Interest(nil), p.InterestLog[over:]...)
	}

	derive(p, now, &s.cfg, s.location)
	p.LastUpdated = now

	if err := s.backend.Put(ctx, p); err != nil {
		metrics.RecordIngest("error", time.Since(start))
		return nil, fmt.Errorf("store profile %q: %w", userID, err)
	}

	if created {
		metrics.ProfilesTracked.Inc()
		s.logger.Debug().Str("user_id", userID).Msg("profile created")
	}
	metrics.RecordIngest("success", time.Since(start))

	return p.Clone(), nil
}

// load returns the stored profile or a fresh one.
func (s *Store) load(ctx context.Context, userID string) (*recommend.UserProfile, bool, error) {
	p, err := s.backend.Get(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, recommend.ErrNotFound) {
		return nil, false, fmt.Errorf("load profile %q: %w", userID, err)
	}
	return &recommend.UserProfile{
		UserID:             userID,
		CategoryWeights:    map[recommend.Category]float64{},
		LocationPreference: recommend.LocationUnknown,
		TimePreference:     map[recommend.TimeBucket]float64{},
	}, true, nil
}

// sanitize coerces an interest into range without rejecting it.
func (s *Store) sanitize(in *recommend.Interest, now time.Time) recommend.Interest {
	out := *in
	out.Category = recommend.ParseCategory(string(in.Category))
	out.Intensity = clamp01(in.Intensity)
	if out.CapturedAt.IsZero() {
		out.CapturedAt = now
	}
	switch out.Setting {
	case recommend.EnvironmentIndoor, recommend.EnvironmentOutdoor, recommend.EnvironmentEither:
	default:
		out.Setting = recommend.EnvironmentEither
	}
	return out
}

// Read returns the user's profile with decay applied at the current time.
// The stored record is not modified. Unknown users yield ErrNotFound.
func (s *Store) Read(ctx context.Context, userID string) (*recommend.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", recommend.ErrInvalidArgument)
	}

	p, err := s.backend.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	derive(p, s.now(), &s.cfg, s.location)
	return p, nil
}

// Snapshot returns decayed copies of every profile. Each profile is read
// under its own user lock so no record is observed mid-update; the set as
// a whole may be slightly stale.
func (s *Store) Snapshot(ctx context.Context) ([]*recommend.UserProfile, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	now := s.now()
	out := make([]*recommend.UserProfile, 0, len(keys))
	for _, userID := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unlock := s.locks.Lock(userID)
		p, err := s.backend.Get(ctx, userID)
		unlock()

		if errors.Is(err, recommend.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot profile %q: %w", userID, err)
		}
		derive(p, now, &s.cfg, s.location)
		out = append(out, p)
	}

	metrics.ProfilesTracked.Set(float64(len(out)))
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
