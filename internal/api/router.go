// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/animebell/internal/auth"
	"github.com/tomtom215/animebell/internal/middleware"
)

// DefaultSocketPath is used when RouterConfig.SocketPath is empty.
const DefaultSocketPath = "/socket"

// RouterConfig wires the pieces the router does not own.
type RouterConfig struct {
	Handler    *Handler
	Verifier   auth.TokenVerifier
	Middleware *ChiMiddleware
	// Socket is mounted at SocketPath when non-nil.
	Socket     http.Handler
	SocketPath string
}

// NewRouter builds the chi router for the whole process.
func NewRouter(cfg RouterConfig) http.Handler {
	mw := cfg.Middleware
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	h := cfg.Handler

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.Socket != nil {
		path := cfg.SocketPath
		if path == "" {
			path = DefaultSocketPath
		}
		r.Method(http.MethodGet, path, cfg.Socket)
	}

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(mw.RateLimit())
		r.Use(auth.RequireUser(cfg.Verifier))

		r.Get("/", h.ListNotifications)
		r.Post("/", h.CreateNotification)
		r.Delete("/", h.DeleteAll)
		r.Get("/unread-count", h.UnreadCount)
		r.Patch("/mark-all-read", h.MarkAllRead)
		r.Patch("/{id}/read", h.MarkRead)
		r.Delete("/{id}", h.DeleteNotification)
	})

	return r
}
