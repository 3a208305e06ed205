// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Reasons sent to clients whose handshake or request is rejected.
const (
	ReasonNoToken      = "Authentication error: No token provided"
	ReasonInvalidToken = "Authentication error: Invalid token"
)

var (
	ErrNoCredential      = errors.New("no token provided")
	ErrInvalidCredential = errors.New("invalid token")
)

// TokenQueryParam carries the credential in the socket handshake, since
// browsers cannot set headers on a WebSocket upgrade.
const TokenQueryParam = "token"

// ExtractCredential returns the handshake token field if present, otherwise
// the bearer token from the Authorization header.
func ExtractCredential(r *http.Request) (string, error) {
	if tok := strings.TrimSpace(r.URL.Query().Get(TokenQueryParam)); tok != "" {
		return tok, nil
	}
	if tok := BearerToken(r.Header.Get("Authorization")); tok != "" {
		return tok, nil
	}
	return "", ErrNoCredential
}

// BearerToken parses "Bearer <token>". The scheme is case-insensitive.
func BearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// Authenticate extracts and verifies the request credential.
func Authenticate(r *http.Request, v TokenVerifier) (string, error) {
	tok, err := ExtractCredential(r)
	if err != nil {
		return "", err
	}
	return v.Verify(tok)
}

// RejectionReason maps an authentication error to its client-facing text.
func RejectionReason(err error) string {
	if errors.Is(err, ErrNoCredential) {
		return ReasonNoToken
	}
	return ReasonInvalidToken
}

// FailureLabel is a short metric label for err.
func FailureLabel(err error) string {
	if errors.Is(err, ErrNoCredential) {
		return "missing_token"
	}
	return "invalid_token"
}
