// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package main is the entry point for the Wayfinder server.

Wayfinder learns traveller interests from interactions, reads the
current weather, time and season, groups similar travellers, and ranks
catalog items by fusing the three signals.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("wayfinder")
	├── StorageSupervisor ("storage-layer")
	│   └── badger-gc (STORAGE_BACKEND=badger only)
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── interaction-intake (watermill router on the interactions topic)
	│   └── clustering-scheduler (interval and manual passes)
	└── APISupervisor ("api-layer")
	    └── ops-http (chi router)

Components are wired leaves first:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Profile backend: in-memory or BadgerDB
 3. Catalog: suitability table from CATALOG_PATH, optionally watched
 4. Classifier, profile store and context engine
 5. Clustering engine, restored from SNAPSHOT_DIR when present
 6. Fusion engine and interaction intake

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, the intake router stops consuming, and the Badger
store is closed after the tree has stopped.

# Example Usage

Development with in-memory profiles:

	export CATALOG_PATH=./catalog.yaml
	export LOG_FORMAT=console
	./wayfinder

Durable profiles and cluster snapshots:

	export STORAGE_BACKEND=badger
	export BADGER_DIR=/data/profiles
	export SNAPSHOT_DIR=/data/clusters
	export CATALOG_PATH=/etc/wayfinder/catalog.yaml
	export CATALOG_WATCH=true
	export WEATHER_READINGS_FILE=/run/wayfinder/readings.json
	./wayfinder
*/
package main
