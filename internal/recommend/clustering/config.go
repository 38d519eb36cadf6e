// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package clustering

import (
	"fmt"
	"time"
)

// Config contains configuration for the clustering engine.
type Config struct {
	// MinK and MaxK bound the number of clusters. Defaults: 2 and 8.
	MinK int `json:"min_k" koanf:"min_k"`
	MaxK int `json:"max_k" koanf:"max_k"`

	// ProfilesPerCluster sets k = n / ProfilesPerCluster before bounding.
	// Default: 20.
	ProfilesPerCluster int `json:"profiles_per_cluster" koanf:"profiles_per_cluster"`

	// MinProfiles is the floor below which a pass is skipped, on top of
	// the 2k requirement. Default: 10.
	MinProfiles int `json:"min_profiles" koanf:"min_profiles"`

	// Interval between scheduled passes. Default: 1h.
	Interval time.Duration `json:"interval" koanf:"interval"`

	// PassTimeout bounds one pass including the profile snapshot.
	// Default: 5m.
	PassTimeout time.Duration `json:"pass_timeout" koanf:"pass_timeout"`

	// SnapshotName is the storage name of persisted assignment sets.
	// Default: "clusters".
	SnapshotName string `json:"snapshot_name" koanf:"snapshot_name"`

	// KeepSnapshots is how many persisted versions to retain. Default: 3.
	KeepSnapshots int `json:"keep_snapshots" koanf:"keep_snapshots"`

	KMeans KMeansConfig `json:"kmeans" koanf:"kmeans"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		MinK:               2,
		MaxK:               8,
		ProfilesPerCluster: 20,
		MinProfiles:        10,
		Interval:           time.Hour,
		PassTimeout:        5 * time.Minute,
		SnapshotName:       "clusters",
		KeepSnapshots:      3,
		KMeans:             DefaultKMeansConfig(),
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocritic // hugeParam: Config is read-only
func (c Config) Validate() error {
	if c.MinK < 1 {
		return fmt.Errorf("min_k must be positive, got %d", c.MinK)
	}
	if c.MaxK < c.MinK {
		return fmt.Errorf("max_k must be >= min_k, got %d < %d", c.MaxK, c.MinK)
	}
	if c.ProfilesPerCluster < 1 {
		return fmt.Errorf("profiles_per_cluster must be positive, got %d", c.ProfilesPerCluster)
	}
	if c.MinProfiles < 0 {
		return fmt.Errorf("min_profiles must be >= 0, got %d", c.MinProfiles)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.PassTimeout <= 0 {
		return fmt.Errorf("pass_timeout must be positive, got %v", c.PassTimeout)
	}
	if c.SnapshotName == "" {
		return fmt.Errorf("snapshot_name is required")
	}
	if c.KeepSnapshots < 1 {
		return fmt.Errorf("keep_snapshots must be positive, got %d", c.KeepSnapshots)
	}
	return nil
}

// ChooseK returns the cluster count for n profiles:
// min(MaxK, max(MinK, n/ProfilesPerCluster)).
//
//nolint:gocritic // hugeParam: Config is read-only
func (c Config) ChooseK(n int) int {
	return min(c.MaxK, max(c.MinK, n/c.ProfilesPerCluster))
}

// Threshold returns the minimum profile count needed to cluster with k groups.
//
//nolint:gocritic // hugeParam: Config is read-only
func (c Config) Threshold(k int) int {
	return max(2*k, c.MinProfiles)
}
