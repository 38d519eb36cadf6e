// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks the configuration for errors. Each section is checked
// in turn and the first failure is returned.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateStorage,
		c.validateCatalog,
		c.validateEngines,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be positive, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Storage.BadgerDir == "" {
			return fmt.Errorf("BADGER_DIR is required when STORAGE_BACKEND is badger")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: memory, badger")
	}
	if c.Storage.SnapshotDir != "" && c.Storage.BadgerDir != "" &&
		filepath.Clean(c.Storage.SnapshotDir) == filepath.Clean(c.Storage.BadgerDir) {
		return fmt.Errorf("SNAPSHOT_DIR must differ from BADGER_DIR")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("CATALOG_WATCH requires CATALOG_PATH")
	}
	if c.Catalog.Path == "" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(c.Catalog.Path)) {
	case ".yaml", ".yml", ".json":
		return nil
	default:
		return fmt.Errorf("CATALOG_PATH must be a .yaml, .yml or .json file, got %q", c.Catalog.Path)
	}
}

// validateEngines delegates to each engine's own validation.
func (c *Config) validateEngines() error {
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if err := c.Context.Validate(); err != nil {
		return fmt.Errorf("context: %w", err)
	}
	if err := c.Clustering.Validate(); err != nil {
		return fmt.Errorf("clustering: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if err := c.Intake.Validate(); err != nil {
		return fmt.Errorf("intake: %w", err)
	}
	return nil
}
