// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

/*
Package main runs the Animebell notification server.

The process is a Suture v4 tree:

	RootSupervisor ("animebell")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── notification-hub
	│   └── eventbus-relay (EVENTS_BACKEND=memory|nats)
	└── APISupervisor ("api-layer")
	    └── http-server (REST, /socket, /metrics, /health)

With EVENTS_BACKEND=none the notification service writes straight into the
local hub. Otherwise every mutation is published on the bus and the relay
feeds the hub, so several nodes behind one load balancer all deliver.

# Configuration

Koanf v2 layers built-in defaults, config.yaml (or CONFIG_PATH) and the
environment. A .env file is read first. The essentials:

	JWT_SECRET        HS256 secret, 32+ chars outside development
	HTTP_PORT         listen port (5000)
	STORE_BACKEND     memory | postgres | badger
	DATABASE_URL      postgres connection string
	EVENTS_BACKEND    none | memory | nats
	NATS_URL          broker URL, or NATS_EMBEDDED=true

# Dev tokens

	server token <user-id> [username]

prints a signed token for the configured JWT_SECRET, for use with cmd/bell.

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the hub
closes every socket, the relay unsubscribes, then the store is closed.
*/
package main
