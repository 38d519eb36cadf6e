// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/wayfinder/internal/eventprocessor"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/classifier"
	"github.com/tomtom215/wayfinder/internal/recommend/clustering"
	"github.com/tomtom215/wayfinder/internal/recommend/contextual"
	"github.com/tomtom215/wayfinder/internal/recommend/profile"
)

// Storage backends for user profiles.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config holds all application configuration.
//
// Sections map one to one onto koanf paths:
//   - server:     ops HTTP listener
//   - logging:    zerolog output
//   - storage:    profile backend and snapshot directory
//   - catalog:    candidate item catalog file
//   - weather:    readings source for the context engine
//   - profile:    interest log and decay
//   - classifier: interaction classification
//   - context:    context engine caching and breaker
//   - clustering: collaborative clustering passes
//   - recommend:  fusion weights and limits
//   - intake:     interaction event pipeline
type Config struct {
	Server     ServerConfig          `koanf:"server"`
	Logging    LoggingConfig         `koanf:"logging"`
	Storage    StorageConfig         `koanf:"storage"`
	Catalog    CatalogConfig         `koanf:"catalog"`
	Weather    WeatherConfig         `koanf:"weather"`
	Profile    profile.Config        `koanf:"profile"`
	Classifier classifier.Config     `koanf:"classifier"`
	Context    contextual.Config     `koanf:"context"`
	Clustering clustering.Config     `koanf:"clustering"`
	Recommend  recommend.Config      `koanf:"recommend"`
	Intake     eventprocessor.Config `koanf:"intake"`
}

// ServerConfig holds the ops HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitReqs requests per RateLimitWindow are allowed per client IP
	// on mutating endpoints.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// StorageConfig selects where profiles and snapshots live.
type StorageConfig struct {
	// Backend is "memory" or "badger". Default: memory.
	Backend string `koanf:"backend"`

	// BadgerDir is the BadgerDB directory, required for the badger backend.
	BadgerDir string `koanf:"badger_dir"`

	// SnapshotDir holds persisted cluster assignment snapshots. Empty
	// disables persistence.
	SnapshotDir string `koanf:"snapshot_dir"`
}

// CatalogConfig points at the candidate item catalog.
type CatalogConfig struct {
	// Path is a YAML or JSON catalog file. Empty starts with no items.
	Path string `koanf:"path"`

	// Watch reloads the catalog when the file changes.
	Watch bool `koanf:"watch"`
}

// WeatherConfig configures the readings provider.
type WeatherConfig struct {
	// ReadingsFile is a JSON file of raw weather readings. Empty runs the
	// context engine clock-only.
	ReadingsFile string `koanf:"readings_file"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8087,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitReqs:   10,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Profile:    profile.DefaultConfig(),
		Classifier: classifier.DefaultConfig(),
		Context:    contextual.DefaultConfig(),
		Clustering: clustering.DefaultConfig(),
		Recommend:  *recommend.DefaultConfig(),
		Intake:     eventprocessor.DefaultConfig(),
	}
}
