// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/animebell/internal/auth"
	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
)

// Handler authenticates socket handshakes and admits them to the hub.
type Handler struct {
	hub            *Hub
	verifier       auth.TokenVerifier
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewHandler builds the /socket endpoint. allowedOrigins uses the CORS list;
// "*" allows any origin.
func NewHandler(hub *Hub, verifier auth.TokenVerifier, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:            hub,
		verifier:       verifier,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: hub.Options().HandshakeTimeout,
		CheckOrigin:      h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.Authenticate(r, h.verifier)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("socket", auth.FailureLabel(err)).Inc()
		logging.Ctx(r.Context()).Info().
			Str("reason", auth.RejectionReason(err)).
			Str("remote_addr", r.RemoteAddr).
			Msg("websocket handshake rejected")
		auth.WriteUnauthorized(w, err)
		return
	}

	// Upgrade writes its own error response.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID)
	h.hub.Register(client)
	client.Start()
}

// checkOrigin lets non-browser clients (no Origin header) through, since
// they already proved identity with a bearer token.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and caps length.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
