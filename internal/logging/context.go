// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	userIDKey        contextKey = "user_id"
	connectionIDKey  contextKey = "connection_id"
	correlationIDKey contextKey = "correlation_id"
)

// GenerateRequestID returns a fresh UUID string.
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateCorrelationID returns a short id used to tie together the log
// lines of one client session (connect, resync, reconnect).
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func ContextWithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connectionIDKey, id)
}

func ConnectionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(connectionIDKey).(string)
	return id
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// Ctx returns the global logger enriched with whatever ids the context
// carries (request_id, user_id, connection_id, correlation_id).
//
//	logging.Ctx(r.Context()).Info().Msg("notification created")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := contextFields(ctx).Logger()
	return &l
}

func contextFields(ctx context.Context) zerolog.Context {
	c := With()
	if ctx == nil {
		return c
	}
	if id := RequestIDFromContext(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if id := UserIDFromContext(ctx); id != "" {
		c = c.Str("user_id", id)
	}
	if id := ConnectionIDFromContext(ctx); id != "" {
		c = c.Str("connection_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		c = c.Str("correlation_id", id)
	}
	return c
}
