// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package eventprocessor

import (
	"fmt"
	"time"
)

// TopicInteractions is the default intake topic.
const TopicInteractions = "interactions"

// Config holds configuration for the interaction intake.
type Config struct {
	// Topic is the subscribed topic. Default: "interactions".
	Topic string `json:"topic" koanf:"topic"`

	// BufferSize is the Go channel output buffer per subscriber. Default: 256.
	BufferSize int64 `json:"buffer_size" koanf:"buffer_size"`

	// CloseTimeout is how long to wait for handlers to finish when closing.
	// Default: 30s.
	CloseTimeout time.Duration `json:"close_timeout" koanf:"close_timeout"`

	// Retry configuration for transient ingest failures.
	RetryMaxRetries      int           `json:"retry_max_retries" koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `json:"retry_initial_interval" koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `json:"retry_max_interval" koanf:"retry_max_interval"`
	RetryMultiplier      float64       `json:"retry_multiplier" koanf:"retry_multiplier"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Topic:                TopicInteractions,
		BufferSize:           256,
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocritic // hugeParam: Config is read-only
func (c Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be >= 0, got %d", c.BufferSize)
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("close_timeout must be positive, got %v", c.CloseTimeout)
	}
	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("retry_max_retries must be >= 0, got %d", c.RetryMaxRetries)
	}
	if c.RetryMaxRetries > 0 && c.RetryInitialInterval <= 0 {
		return fmt.Errorf("retry_initial_interval must be positive, got %v", c.RetryInitialInterval)
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("retry_multiplier must be >= 1, got %f", c.RetryMultiplier)
	}
	return nil
}
