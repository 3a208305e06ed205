// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package client

import (
	"context"
	"errors"
)

// ErrNoCredential means the TokenSource had nothing to offer. The controller
// stops instead of retrying.
var ErrNoCredential = errors.New("no credential available")

// TokenSource is asked for a credential before every connection attempt, so
// a refreshed token is picked up after an unauthorized handshake.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoCredential
	}
	return string(t), nil
}
