// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package main is the entry point for the Cinematch recommendation server.

Startup order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Index cache: Badger store of built similarity indexes (optional)
 4. Snapshot: load the movie and rating tables, build or restore the
    item-item index, install it. Bounded by data.load_timeout plus
    similarity.build_timeout; any failure exits the process.
 5. Supervisor tree: suture v4 with the reload service and HTTP server

	RootSupervisor ("cinematch")
	├── EngineSupervisor ("engine-layer")
	│   └── ReloadService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

# Configuration

	CONFIG_PATH=/etc/cinematch/config.yaml
	MOVIES_PATH=/data/ml-25m/movies.csv
	RATINGS_PATH=/data/ml-25m/ratings.csv
	DATA_LOADER=duckdb
	SIMILARITY_MIN_COMMON_RATERS=5
	SIMILARITY_NEIGHBORS=50
	INDEX_CACHE_ENABLED=true
	RELOAD_INTERVAL=24h

# Signal Handling

SIGINT and SIGTERM cancel the supervisor context. The HTTP server stops
accepting connections and waits server.shutdown_timeout for in-flight
requests; the index cache is closed last.
*/
package main
