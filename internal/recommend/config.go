// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"fmt"
	"math"
)

// Config contains all configuration for the fusion engine.
type Config struct {
	// Weights blends the three components when the user has a profile.
	Weights FusionWeights `json:"weights" koanf:"weights"`

	// ColdStartContextWeight scales the context component when the user
	// has no profile. Profile and collaborative terms are zero then.
	// Default: 0.8.
	ColdStartContextWeight float64 `json:"cold_start_context_weight" koanf:"cold_start_context_weight"`

	// Context blends the sub-scores of the context component.
	Context ContextBlend `json:"context" koanf:"context"`

	// LocationBonus is added to the profile component when the item's
	// indoor/outdoor need matches the user's location preference.
	// Default: 0.15.
	LocationBonus float64 `json:"location_bonus" koanf:"location_bonus"`

	// ReasonThreshold is the component score above which a reason tag is emitted.
	// Default: 0.6.
	ReasonThreshold float64 `json:"reason_threshold" koanf:"reason_threshold"`

	// MinComposite excludes results scoring below it.
	// Default: 0.05.
	MinComposite float64 `json:"min_composite" koanf:"min_composite"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`
}

// FusionWeights defines the contribution of each component to the composite score.
type FusionWeights struct {
	// Context is the weight of contextual suitability. Default: 0.45.
	Context float64 `json:"context" koanf:"context"`

	// Profile is the weight of the user's own interests. Default: 0.40.
	Profile float64 `json:"profile" koanf:"profile"`

	// Collaborative is the weight of the user's cluster centroid. Default: 0.15.
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`
}

// Sum returns the total of all weights.
func (w FusionWeights) Sum() float64 {
	return w.Context + w.Profile + w.Collaborative
}

// ContextBlend defines the sub-weights of the context component.
type ContextBlend struct {
	// Weather is the weight of the weather match. Default: 0.4.
	Weather float64 `json:"weather" koanf:"weather"`

	// Time is the weight of the time-of-day affinity. Default: 0.3.
	Time float64 `json:"time" koanf:"time"`

	// Season is the weight of the seasonal affinity. Default: 0.3.
	Season float64 `json:"season" koanf:"season"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxCandidates is the maximum number of candidates accepted per request.
	// Default: 5000.
	MaxCandidates int `json:"max_candidates" koanf:"max_candidates"`

	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 100.
	MaxK int `json:"max_k" koanf:"max_k"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: FusionWeights{
			Context:       0.45,
			Profile:       0.40,
			Collaborative: 0.15,
		},
		ColdStartContextWeight: 0.8,
		Context: ContextBlend{
			Weather: 0.4,
			Time:    0.3,
			Season:  0.3,
		},
		LocationBonus:   0.15,
		ReasonThreshold: 0.6,
		MinComposite:    0.05,
		Limits: LimitsConfig{
			MaxCandidates: 5000,
			DefaultK:      10,
			MaxK:          100,
		},
	}
}

// Validate checks the configuration for errors.
//
// Weights may be retuned freely as long as context keeps dominating at cold
// start: the cold-start context weight must be at least the profiled one.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"weights.context":       c.Weights.Context,
		"weights.profile":       c.Weights.Profile,
		"weights.collaborative": c.Weights.Collaborative,
		"context.weather":       c.Context.Weather,
		"context.time":          c.Context.Time,
		"context.season":        c.Context.Season,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, w)
		}
	}

	if sum := c.Weights.Sum(); sum <= 0 || sum > 1+1e-9 {
		return fmt.Errorf("weights must sum to a value in (0, 1], got %f", sum)
	}
	if sum := c.Context.Weather + c.Context.Time + c.Context.Season; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("context weights must sum to 1, got %f", sum)
	}

	if c.ColdStartContextWeight <= 0 || c.ColdStartContextWeight > 1 {
		return fmt.Errorf("cold_start_context_weight must be in (0, 1], got %f", c.ColdStartContextWeight)
	}
	if c.ColdStartContextWeight < c.Weights.Context {
		return fmt.Errorf("cold_start_context_weight must be >= weights.context, got %f < %f",
			c.ColdStartContextWeight, c.Weights.Context)
	}

	if c.LocationBonus < 0 || c.LocationBonus > 1 {
		return fmt.Errorf("location_bonus must be in [0, 1], got %f", c.LocationBonus)
	}
	if c.ReasonThreshold < 0 || c.ReasonThreshold > 1 {
		return fmt.Errorf("reason_threshold must be in [0, 1], got %f", c.ReasonThreshold)
	}
	if c.MinComposite < 0 || c.MinComposite >= 1 {
		return fmt.Errorf("min_composite must be in [0, 1), got %f", c.MinComposite)
	}

	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types
	clone := *c
	return &clone
}
