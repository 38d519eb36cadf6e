// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package profile

import (
	"fmt"
	"time"
)

// Config contains configuration for the profile store.
type Config struct {
	// Capacity bounds the interest log; the oldest entries are evicted first.
	// Default: 200.
	Capacity int `json:"capacity" koanf:"capacity"`

	// HalfLife is the decay half-life applied to interest intensities.
	// Default: 72h.
	HalfLife time.Duration `json:"half_life" koanf:"half_life"`

	// LocationWindow is the number of most recent interests that vote on
	// the location preference. Default: 20.
	LocationWindow int `json:"location_window" koanf:"location_window"`

	// ActivityWindow is the lookback used for the activity level. Default: 24h.
	ActivityWindow time.Duration `json:"activity_window" koanf:"activity_window"`

	// ActivityNorm is the interest count within ActivityWindow that maps
	// to an activity level of 1. Default: 10.
	ActivityNorm int `json:"activity_norm" koanf:"activity_norm"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:       200,
		HalfLife:       72 * time.Hour,
		LocationWindow: 20,
		ActivityWindow: 24 * time.Hour,
		ActivityNorm:   10,
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocritic // hugeParam: Config is small enough
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.HalfLife <= 0 {
		return fmt.Errorf("half_life must be positive, got %v", c.HalfLife)
	}
	if c.LocationWindow < 1 {
		return fmt.Errorf("location_window must be positive, got %d", c.LocationWindow)
	}
	if c.ActivityWindow <= 0 {
		return fmt.Errorf("activity_window must be positive, got %v", c.ActivityWindow)
	}
	if c.ActivityNorm < 1 {
		return fmt.Errorf("activity_norm must be positive, got %d", c.ActivityNorm)
	}
	return nil
}
