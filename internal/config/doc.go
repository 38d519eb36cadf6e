// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package config provides centralized configuration management for Wayfinder.

Configuration is loaded with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (each engine's DefaultConfig)
 2. An optional YAML file, found via CONFIG_PATH or DefaultConfigPaths
 3. Environment variables listed in the mapping table

Only mapped environment variables are read. Every other setting is reachable
through the YAML file using its koanf path.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT: ops listener (default: 0.0.0.0:8087)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
  - HTTP_SHUTDOWN_TIMEOUT: graceful shutdown bound (default: 15s)
  - RATE_LIMIT_REQS, RATE_LIMIT_WINDOW: limit on trigger endpoints

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)
  - LOG_CALLER: include caller info (default: false)

Storage:
  - STORAGE_BACKEND: memory or badger (default: memory)
  - BADGER_DIR: BadgerDB directory
  - SNAPSHOT_DIR: cluster snapshot directory (empty disables persistence)

Catalog and context:
  - CATALOG_PATH, CATALOG_WATCH
  - WEATHER_READINGS_FILE: JSON readings file (empty runs clock-only)
  - CONTEXT_LOCALE: th or vn (default: th)
  - CONTEXT_VALIDITY_WINDOW, CONTEXT_PROVIDER_TIMEOUT

Clustering:
  - CLUSTER_MIN_K, CLUSTER_MAX_K, CLUSTER_MIN_PROFILES
  - CLUSTER_INTERVAL: time between passes (default: 1h)
  - CLUSTER_PASS_TIMEOUT, CLUSTER_KEEP_SNAPSHOTS, CLUSTER_SEED

# Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Server.Addr())
*/
package config
