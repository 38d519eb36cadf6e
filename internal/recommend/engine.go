// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
)

// Engine fuses context, profile and collaborative signals into ranked
// recommendations. It is safe for concurrent use.
type Engine struct {
	config atomic.Pointer[Config]
	logger zerolog.Logger

	profiles ProfileReader
	clusters AssignmentReader

	// Stats
	requestCount atomic.Int64
	coldStarts   atomic.Int64
	fallbacks    atomic.Int64
	errorCount   atomic.Int64
}

// Stats holds engine counters since start.
type Stats struct {
	RequestCount int64 `json:"request_count"`
	ColdStarts   int64 `json:"cold_starts"`
	Fallbacks    int64 `json:"fallbacks"`
	ErrorCount   int64 `json:"error_count"`
}

// scoredCandidate is a candidate with its component scores.
type scoredCandidate struct {
	item         *CandidateItem
	contextScore float64
	weatherScore float64
	timeScore    float64
	seasonScore  float64
	profileScore float64
	collabScore  float64
	composite    float64
}

// NewEngine creates a new fusion engine. profiles and clusters may be nil,
// in which case every request is served as a cold start without a
// collaborative component.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, profiles ProfileReader, clusters AssignmentReader, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		logger:   logger.With().Str("component", "recommend").Logger(),
		profiles: profiles,
		clusters: clusters,
	}
	e.config.Store(cfg.Clone())
	return e, nil
}

// Recommend ranks the request's candidates for the user.
//
// An empty candidate list yields an empty response, not an error. A
// malformed candidate fails the whole request with ErrInvalidArgument.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)
	cfg := e.config.Load()

	req = e.prepareRequest(cfg, req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	if err := e.validateCandidates(cfg, req.Candidates); err != nil {
		e.errorCount.Add(1)
		metrics.RecordRecommendationRejected()
		return nil, err
	}

	if len(req.Candidates) == 0 {
		logger.Debug().Msg("no candidates supplied")
		resp := e.emptyResponse(req, start)
		metrics.RecordRecommendation(time.Since(start), 0, resp.Metadata.ColdStart, false)
		return resp, nil
	}

	profile := e.loadProfile(ctx, req.UserID, logger)
	assignment, hasAssignment := e.lookupAssignment(req.UserID, profile)

	scored := make([]scoredCandidate, len(req.Candidates))
	for i := range req.Candidates {
		scored[i] = e.scoreCandidate(cfg, &req.Candidates[i], req.Context, profile, assignment, hasAssignment)
	}

	ranked, fallback := e.rank(cfg, scored)
	if len(ranked) > req.TopK {
		ranked = ranked[:req.TopK]
	}

	recs := make([]Recommendation, len(ranked))
	for i := range ranked {
		recs[i] = e.explain(cfg, &ranked[i], req.Context, profile, fallback)
	}

	coldStart := profile == nil
	if coldStart {
		e.coldStarts.Add(1)
	}
	if fallback {
		e.fallbacks.Add(1)
	}

	clusterID := -1
	if hasAssignment {
		clusterID = assignment.ClusterID
	}

	resp := &Response{
		Recommendations: recs,
		Metadata: ResponseMetadata{
			RequestID:      req.RequestID,
			ColdStart:      coldStart,
			ClusterID:      clusterID,
			Fallback:       fallback,
			CandidateCount: len(req.Candidates),
			LatencyMS:      time.Since(start).Milliseconds(),
			GeneratedAt:    time.Now(),
		},
	}

	metrics.RecordRecommendation(time.Since(start), len(recs), coldStart, fallback)

	logger.Debug().
		Int("candidates", len(req.Candidates)).
		Int("returned", len(recs)).
		Bool("cold_start", coldStart).
		Bool("fallback", fallback).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(cfg *Config, req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if req.TopK <= 0 {
		req.TopK = cfg.Limits.DefaultK
	}
	if req.TopK > cfg.Limits.MaxK {
		req.TopK = cfg.Limits.MaxK
	}

	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()
}

func (e *Engine) validateCandidates(cfg *Config, candidates []CandidateItem) error {
	if len(candidates) > cfg.Limits.MaxCandidates {
		return fmt.Errorf("%w: %d candidates exceeds limit of %d",
			ErrInvalidArgument, len(candidates), cfg.Limits.MaxCandidates)
	}
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	return nil
}

// loadProfile returns the user's profile, or nil for a cold start.
// Anonymous requests, missing profiles and read failures all count as
// cold start; only unexpected failures are logged.
func (e *Engine) loadProfile(ctx context.Context, userID string, logger zerolog.Logger) *UserProfile {
	if userID == "" || e.profiles == nil {
		return nil
	}

	profile, err := e.profiles.Read(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn().Err(err).Msg("profile read failed, serving cold start")
		}
		return nil
	}
	return profile
}

// lookupAssignment returns the user's cluster assignment. Users without a
// profile never get a collaborative component.
func (e *Engine) lookupAssignment(userID string, profile *UserProfile) (ClusterAssignment, bool) {
	if profile == nil || e.clusters == nil {
		return ClusterAssignment{}, false
	}
	return e.clusters.Assignment(userID)
}

//nolint:gocritic // hugeParam: snapshot and assignment are read-only
func (e *Engine) scoreCandidate(cfg *Config, item *CandidateItem, snap ContextSnapshot, profile *UserProfile,
	assignment ClusterAssignment, hasAssignment bool) scoredCandidate {
	sc := scoredCandidate{item: item}
	category := ParseCategory(string(item.Category))

	sc.weatherScore = weatherMatch(item.WeatherDependency, snap.Weather)
	sc.timeScore = clamp01(item.TimeAffinity[snap.TimeBucket])
	sc.seasonScore = clamp01(item.SeasonalAffinity[snap.Season])
	sc.contextScore = clamp01(cfg.Context.Weather*sc.weatherScore +
		cfg.Context.Time*sc.timeScore +
		cfg.Context.Season*sc.seasonScore)

	if profile == nil {
		sc.composite = clamp01(cfg.ColdStartContextWeight * sc.contextScore)
		return sc
	}

	sc.profileScore = profile.Weight(category)
	if profile.LocationPreference.Matches(item.WeatherDependency) {
		sc.profileScore += cfg.LocationBonus
	}
	sc.profileScore = clamp01(sc.profileScore)

	if hasAssignment {
		sc.collabScore = clamp01(assignment.Centroid[category])
	}

	sc.composite = clamp01(cfg.Weights.Context*sc.contextScore +
		cfg.Weights.Profile*sc.profileScore +
		cfg.Weights.Collaborative*sc.collabScore)
	return sc
}

// rank drops candidates below the minimum composite score and sorts the
// rest. If nothing survives, all candidates are ranked by context alone
// and fallback is reported.
func (e *Engine) rank(cfg *Config, scored []scoredCandidate) ([]scoredCandidate, bool) {
	kept := make([]scoredCandidate, 0, len(scored))
	for i := range scored {
		if scored[i].composite >= cfg.MinComposite {
			kept = append(kept, scored[i])
		}
	}

	fallback := false
	if len(kept) == 0 {
		fallback = true
		kept = append(kept, scored...)
		for i := range kept {
			kept[i].composite = kept[i].contextScore
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].composite != kept[j].composite {
			return kept[i].composite > kept[j].composite
		}
		return kept[i].item.ItemID < kept[j].item.ItemID
	})

	return kept, fallback
}

//nolint:gocritic // hugeParam: snapshot is read-only
func (e *Engine) explain(cfg *Config, sc *scoredCandidate, snap ContextSnapshot, profile *UserProfile, fallback bool) Recommendation {
	rec := Recommendation{
		ItemID:                 sc.item.ItemID,
		CompositeScore:         sc.composite,
		ProfileComponent:       sc.profileScore,
		ContextComponent:       sc.contextScore,
		CollaborativeComponent: sc.collabScore,
		Reasons:                []string{},
	}
	if fallback {
		rec.ProfileComponent = 0
		rec.CollaborativeComponent = 0
	}

	if rec.ContextComponent > cfg.ReasonThreshold {
		rec.Reasons = append(rec.Reasons, contextReason(sc, snap))
	}
	if profile != nil && rec.ProfileComponent > cfg.ReasonThreshold {
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("matches your %s interest", ParseCategory(string(sc.item.Category))))
	}
	if rec.CollaborativeComponent > cfg.ReasonThreshold {
		rec.Reasons = append(rec.Reasons, "popular with similar travelers")
	}
	return rec
}

// contextReason names the strongest context sub-signal.
//
//nolint:gocritic // hugeParam: snapshot is read-only
func contextReason(sc *scoredCandidate, snap ContextSnapshot) string {
	switch {
	case sc.weatherScore == 1 && snap.Weather != WeatherUnknown && snap.Weather != "":
		return "matches current weather"
	case sc.timeScore >= sc.seasonScore && snap.TimeBucket != "":
		return fmt.Sprintf("good for %s", snap.TimeBucket)
	default:
		return "in season"
	}
}

// weatherMatch scores an item's weather dependency against the current weather:
// 1 on a match, 0.5 for items usable either way, 0 on a mismatch. Unknown
// weather expresses no need and scores 0.5 for everything.
func weatherMatch(dep Environment, w Weather) float64 {
	need := w.Need()
	switch {
	case need == EnvironmentEither:
		return 0.5
	case dep == EnvironmentEither:
		return 0.5
	case dep == need:
		return 1
	default:
		return 0
	}
}

// emptyResponse returns an empty response for requests without candidates.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) emptyResponse(req Request, start time.Time) *Response {
	return &Response{
		Recommendations: []Recommendation{},
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			ColdStart:   req.UserID == "" || e.profiles == nil,
			ClusterID:   -1,
			LatencyMS:   time.Since(start).Milliseconds(),
			GeneratedAt: time.Now(),
		},
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Load().Clone()
}

// UpdateConfig atomically replaces the engine configuration.
// In-flight requests finish with the configuration they started with.
func (e *Engine) UpdateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e.config.Store(cfg.Clone())
	e.logger.Info().Msg("configuration updated")

	return nil
}

// GetStats returns the engine counters.
func (e *Engine) GetStats() Stats {
	return Stats{
		RequestCount: e.requestCount.Load(),
		ColdStarts:   e.coldStarts.Load(),
		Fallbacks:    e.fallbacks.Load(),
		ErrorCount:   e.errorCount.Load(),
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
