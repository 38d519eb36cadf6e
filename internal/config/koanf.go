// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wayfinder/config.yaml",
	"/etc/wayfinder/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with layered sources:
//  1. Defaults: built-in production defaults
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: override any mapped setting
//
// Precedence is ENV > File > Defaults. The result is validated.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// HTTP_PORT -> server.port
	// CLUSTER_INTERVAL -> clustering.interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"classifier.settings.indoor",
	"classifier.settings.outdoor",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"rate_limit_reqs":       "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Storage
	"storage_backend": "storage.backend",
	"badger_dir":      "storage.badger_dir",
	"snapshot_dir":    "storage.snapshot_dir",

	// Catalog and weather
	"catalog_path":          "catalog.path",
	"catalog_watch":         "catalog.watch",
	"weather_readings_file": "weather.readings_file",

	// Profiles
	"profile_capacity":        "profile.capacity",
	"profile_half_life":       "profile.half_life",
	"profile_location_window": "profile.location_window",
	"profile_activity_window": "profile.activity_window",
	"profile_activity_norm":   "profile.activity_norm",

	// Classifier
	"classifier_indoor_terms":  "classifier.settings.indoor",
	"classifier_outdoor_terms": "classifier.settings.outdoor",

	// Context engine
	"context_locale":           "context.locale",
	"context_validity_window":  "context.validity_window",
	"context_provider_timeout": "context.provider_timeout",
	"weather_breaker_timeout":  "context.breaker.timeout",

	// Clustering
	"cluster_min_k":          "clustering.min_k",
	"cluster_max_k":          "clustering.max_k",
	"cluster_min_profiles":   "clustering.min_profiles",
	"cluster_interval":       "clustering.interval",
	"cluster_pass_timeout":   "clustering.pass_timeout",
	"cluster_keep_snapshots": "clustering.keep_snapshots",
	"cluster_seed":           "clustering.kmeans.seed",

	// Fusion
	"recommend_weight_context":       "recommend.weights.context",
	"recommend_weight_profile":       "recommend.weights.profile",
	"recommend_weight_collaborative": "recommend.weights.collaborative",
	"recommend_cold_start_weight":    "recommend.cold_start_context_weight",
	"recommend_min_composite":        "recommend.min_composite",
	"recommend_max_candidates":       "recommend.limits.max_candidates",
	"recommend_default_k":            "recommend.limits.default_k",
	"recommend_max_k":                "recommend.limits.max_k",

	// Intake
	"intake_buffer_size":   "intake.buffer_size",
	"intake_close_timeout": "intake.close_timeout",
	"intake_max_retries":   "intake.retry_max_retries",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - STORAGE_BACKEND -> storage.backend
//   - CLUSTER_INTERVAL -> clustering.interval
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables
	// do not pollute config
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for reloading with Load and for guarding
// the configuration it swaps in.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
