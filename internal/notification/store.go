// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/metrics"
	"github.com/tomtom215/animebell/internal/models"
)

var (
	ErrNotFound     = errors.New("notification not found")
	ErrForbidden    = errors.New("notification belongs to another user")
	ErrInvalidInput = errors.New("invalid notification")
	ErrStoreClosed  = errors.New("notification store closed")
)

// Store persists notifications. Lists are newest first. Implementations do
// not check ownership; the Service does.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, recipient string, limit, offset int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int, error)

	// MarkRead reports whether the flag actually changed.
	MarkRead(ctx context.Context, id string) (bool, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)

	Delete(ctx context.Context, id string) error
	// DeleteAll returns the ids it removed.
	DeleteAll(ctx context.Context, recipient string) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by store.backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// NewStore opens the backend selected in cfg.
func NewStore(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg)
	case BackendBadger:
		return NewBadgerStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// observe records the latency of one store call.
func observe(backend, op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordStoreOperation(backend, op, time.Since(start), err)
}
