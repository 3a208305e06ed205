// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

/*
Package middleware holds the chi middleware that is not tied to one route
group.

  - RequestID: takes X-Request-ID from the proxy or mints a UUID, echoes it
    back and puts it (plus a correlation id) into the logging context.
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    the chi route pattern so path parameters do not explode cardinality.

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    ...
	})

PrometheusMetrics wraps the ResponseWriter, so keep it off the WebSocket
route; the upgrade needs the original writer's Hijacker.
*/
package middleware
