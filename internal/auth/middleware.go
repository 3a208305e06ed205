// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package auth

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
	"github.com/tomtom215/animebell/internal/models"
)

type contextKey string

const userIDContextKey contextKey = "auth_user_id"

// ContextWithUserID stores the authenticated user id.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the id stored by RequireUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok && id != ""
}

// RequireUser rejects requests without a valid bearer credential.
// Only the Authorization header is honored here; the token query parameter
// is reserved for the socket handshake so tokens stay out of REST access logs.
func RequireUser(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := BearerToken(r.Header.Get("Authorization"))
			var (
				userID string
				err    error
			)
			if tok == "" {
				err = ErrNoCredential
			} else {
				userID, err = v.Verify(tok)
			}
			if err != nil {
				metrics.AuthFailures.WithLabelValues("rest", FailureLabel(err)).Inc()
				logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected request credential")
				writeUnauthorized(w, RejectionReason(err))
				return
			}

			ctx := ContextWithUserID(r.Context(), userID)
			ctx = logging.ContextWithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized mirrors the API error body.
func writeUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="animebell"`)
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: &models.APIError{Code: "UNAUTHORIZED", Message: reason}})
}

// WriteUnauthorized is exported for the socket handshake.
func WriteUnauthorized(w http.ResponseWriter, err error) {
	writeUnauthorized(w, RejectionReason(err))
}
