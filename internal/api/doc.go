// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

/*
Package api is the HTTP surface: the notification REST endpoints, health
checks, the Prometheus scrape endpoint and the mount point of the WebSocket
gateway.

Routes:

	GET    /api/notifications?page=&limit=   one page, newest first
	GET    /api/notifications/unread-count
	POST   /api/notifications                create (sender = caller)
	PATCH  /api/notifications/mark-all-read
	PATCH  /api/notifications/{id}/read
	DELETE /api/notifications/{id}
	DELETE /api/notifications                delete all of the caller's
	GET    /health/live
	GET    /health/ready
	GET    /metrics
	GET    /socket                           WebSocket upgrade

Every /api route requires a bearer token. The socket authenticates inside
its own handshake, so it sits outside the auth group and outside the metrics
middleware (which would hide the Hijacker).

Errors share one body:

	{"error":{"code":"NOT_FOUND","message":"Notification not found"}}
*/
package api
