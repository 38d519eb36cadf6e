// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package contextual builds context snapshots (weather, time of day,
// season) for recommendation requests.
//
// Snapshot is the pure mapping from readings to enumerated context.
// Engine adds the operational layer: it pulls readings from an injected
// provider through a circuit breaker, degrades to a clock-only snapshot
// on any provider trouble, and reuses a good snapshot for a short
// validity window.
package contextual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/wayfinder/internal/cache"
	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
)

// ReadingsProvider supplies current weather readings.
type ReadingsProvider interface {
	Readings(ctx context.Context) (*recommend.RawReadings, error)
}

// BreakerConfig configures the circuit breaker around the provider.
type BreakerConfig struct {
	// MaxRequests allowed in half-open state. Default: 3.
	MaxRequests uint32 `json:"max_requests" koanf:"max_requests"`

	// Interval after which closed-state counts reset. Default: 1m.
	Interval time.Duration `json:"interval" koanf:"interval"`

	// Timeout before an open breaker moves to half-open. Default: 30s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// MinRequests before the failure ratio is considered. Default: 5.
	MinRequests uint32 `json:"min_requests" koanf:"min_requests"`

	// FailureRatio at or above which the breaker opens. Default: 0.6.
	FailureRatio float64 `json:"failure_ratio" koanf:"failure_ratio"`
}

// Config contains configuration for the context engine.
type Config struct {
	// Locale names the built-in destination calendar. Default: "th".
	Locale string `json:"locale" koanf:"locale"`

	// ValidityWindow is how long a provider-backed snapshot is reused.
	// Default: 5m.
	ValidityWindow time.Duration `json:"validity_window" koanf:"validity_window"`

	// ProviderTimeout bounds a single provider call. Default: 2s.
	ProviderTimeout time.Duration `json:"provider_timeout" koanf:"provider_timeout"`

	Breaker BreakerConfig `json:"breaker" koanf:"breaker"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Locale:          "th",
		ValidityWindow:  5 * time.Minute,
		ProviderTimeout: 2 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  5,
			FailureRatio: 0.6,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocritic // hugeParam: Config is read-only
func (c Config) Validate() error {
	if _, err := LookupLocale(c.Locale); err != nil {
		return err
	}
	if c.ValidityWindow < 0 {
		return fmt.Errorf("validity_window must be >= 0, got %v", c.ValidityWindow)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider_timeout must be positive, got %v", c.ProviderTimeout)
	}
	if c.Breaker.MaxRequests < 1 {
		return fmt.Errorf("breaker.max_requests must be positive, got %d", c.Breaker.MaxRequests)
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], got %f", c.Breaker.FailureRatio)
	}
	return nil
}

// Engine produces the current context snapshot. It is safe for concurrent use.
type Engine struct {
	cfg      Config
	locale   Locale
	provider ReadingsProvider
	breaker  *gobreaker.CircuitBreaker[*recommend.RawReadings]
	cache    *cache.Cache[string, recommend.ContextSnapshot]
	cacheKey string
	inflight singleflight.Group
	now      func() time.Time
	logger   zerolog.Logger
}

const breakerName = "readings-provider"

// NewEngine creates a context engine. provider may be nil, in which case
// every snapshot is clock-only.
//
//nolint:gocritic // hugeParam: cfg copied once; logger by value is acceptable for zerolog
func NewEngine(cfg Config, provider ReadingsProvider, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context config: %w", err)
	}
	locale, err := LookupLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		locale:   locale,
		provider: provider,
		now:      time.Now,
		logger:   logger.With().Str("component", "context").Logger(),
	}
	e.cache = cache.NewWithClock[string, recommend.ContextSnapshot](cfg.ValidityWindow, func() time.Time { return e.now() })
	e.cacheKey = cache.GenerateKey("snapshot", map[string]string{"locale": locale.Name})
	e.breaker = e.newBreaker()

	return e, nil
}

// WithClock sets the clock used for snapshots and the reuse window.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// Locale returns the engine's destination calendar.
func (e *Engine) Locale() Locale {
	return e.locale
}

func (e *Engine) newBreaker() *gobreaker.CircuitBreaker[*recommend.RawReadings] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	bc := e.cfg.Breaker
	return gobreaker.NewCircuitBreaker[*recommend.RawReadings](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= bc.FailureRatio
			if shouldTrip {
				e.logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening readings circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			e.logger.Info().Str("from", fromStr).Str("to", toStr).Msg("readings circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

// Current returns the snapshot for now. A provider-backed snapshot is
// reused within the validity window; provider errors, timeouts and an
// open breaker degrade to a clock-only snapshot. Current never fails.
func (e *Engine) Current(ctx context.Context) recommend.ContextSnapshot {
	if snap, ok := e.cache.Get(e.cacheKey); ok {
		metrics.RecordContextSnapshot("cache")
		return snap
	}

	now := e.now()
	if e.provider == nil {
		metrics.RecordContextSnapshot("clock")
		return Snapshot(nil, now, e.locale)
	}

	raw, err := e.fetchShared(ctx)
	if err != nil {
		metrics.RecordContextSnapshot("clock")
		return Snapshot(nil, now, e.locale)
	}

	snap := Snapshot(raw, now, e.locale)
	if e.cfg.ValidityWindow > 0 {
		e.cache.Set(e.cacheKey, snap)
	}
	metrics.RecordContextSnapshot("provider")
	return snap
}

// Invalidate drops the reused snapshot so the next call hits the provider.
func (e *Engine) Invalidate() {
	e.cache.Delete(e.cacheKey)
}

// BreakerState returns the circuit breaker state name.
func (e *Engine) BreakerState() string {
	return stateToString(e.breaker.State())
}

// fetchShared coalesces concurrent cache misses into one provider call.
// Waiters share the leader's result, including a failure caused by the
// leader's context.
func (e *Engine) fetchShared(ctx context.Context) (*recommend.RawReadings, error) {
	v, err, _ := e.inflight.Do(e.cacheKey, func() (interface{}, error) {
		return e.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*recommend.RawReadings), nil
}

func (e *Engine) fetch(ctx context.Context) (*recommend.RawReadings, error) {
	raw, err := e.breaker.Execute(func() (*recommend.RawReadings, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		defer cancel()

		r, err := e.provider.Readings(callCtx)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, errors.New("provider returned no readings")
		}
		return r, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			e.logger.Debug().Err(err).Msg("readings request rejected by circuit breaker")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
			e.logger.Warn().Err(err).Msg("readings provider failed, using clock-only snapshot")
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return raw, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
