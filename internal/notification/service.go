// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package notification owns notification persistence and announces every
// change to connected clients through an Emitter.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/models"
)

// Emitter pushes events to every live connection of a recipient. Delivery
// is best effort: clients that miss an event catch up from the next snapshot.
type Emitter interface {
	Notify(ctx context.Context, recipient string, n *models.Notification) error
	UnreadCountChanged(ctx context.Context, recipient string, count int) error
	NotificationRemoved(ctx context.Context, recipient string, notificationID string) error
}

// Paging bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MaxDeletionPushes caps the notificationDeleted events one bulk delete
// sends. It stays well under the gateway's per-connection send buffer so a
// bulk delete never evicts the recipient's own tabs. Larger batches push only
// the final unread count; other tabs pick up the empty list on their next
// snapshot.
const MaxDeletionPushes = 100

// CreateInput is what a server action supplies for a new notification.
type CreateInput struct {
	Type         models.NotificationType
	SenderID     *string
	RecipientID  string
	Message      string
	RelatedID    *string
	SenderName   *string
	SenderAvatar *string
	AnimeTitle   *string
}

// Service applies ownership rules on top of a Store and emits an event after
// every successful mutation.
type Service struct {
	store   Store
	emitter Emitter
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, emitter Emitter) *Service {
	return &Service{
		store:   store,
		emitter: emitter,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Create stores a notification for in.RecipientID and pushes it, followed by
// the recipient's new unread count.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Notification, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, in.Type)
	}
	if strings.TrimSpace(in.RecipientID) == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	n := &models.Notification{
		ID:           s.newID(),
		Type:         in.Type,
		SenderID:     in.SenderID,
		RecipientID:  in.RecipientID,
		Message:      in.Message,
		RelatedID:    in.RelatedID,
		SenderName:   in.SenderName,
		SenderAvatar: in.SenderAvatar,
		AnimeTitle:   in.AnimeTitle,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("notification_id", n.ID).
		Str("recipient_id", n.RecipientID).
		Str("type", string(n.Type)).
		Msg("notification created")

	s.emit(ctx, "notify", n.RecipientID, func() error {
		return s.emitter.Notify(ctx, n.RecipientID, n.Clone())
	})
	s.pushUnreadCount(ctx, n.RecipientID)
	return n, nil
}

// List returns one page of userID's notifications, newest first. page < 1
// is treated as 1; limit outside 1..MaxPageSize falls back to DefaultPageSize.
func (s *Service) List(ctx context.Context, userID string, page, limit int) ([]*models.Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	return s.store.List(ctx, userID, limit, (page-1)*limit)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

// owned loads id and checks it belongs to userID.
func (s *Service) owned(ctx context.Context, userID, id string) (*models.Notification, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != userID {
		return nil, ErrForbidden
	}
	return n, nil
}

// MarkRead flips one notification to read. Marking an already read
// notification succeeds without emitting anything.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	changed, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if changed {
		s.pushUnreadCount(ctx, userID)
	}
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.pushUnreadCount(ctx, userID)
	}
	return updated, nil
}

// Delete removes one notification and tells the owner's other sessions.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, "notification_removed", userID, func() error {
		return s.emitter.NotificationRemoved(ctx, userID, id)
	})
	if !n.IsRead {
		s.pushUnreadCount(ctx, userID)
	}
	return nil
}

// DeleteAll removes every notification of userID and returns how many.
func (s *Service) DeleteAll(ctx context.Context, userID string) (int64, error) {
	ids, err := s.store.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) <= MaxDeletionPushes {
		for _, id := range ids {
			s.emit(ctx, "notification_removed", userID, func() error {
				return s.emitter.NotificationRemoved(ctx, userID, id)
			})
		}
	} else {
		logging.Ctx(ctx).Debug().
			Str("recipient_id", userID).
			Int("deleted", len(ids)).
			Msg("bulk delete too large for per-item pushes, sending count only")
	}
	if len(ids) > 0 {
		s.emit(ctx, "unread_count", userID, func() error {
			return s.emitter.UnreadCountChanged(ctx, userID, 0)
		})
	}
	return int64(len(ids)), nil
}

// Ping reports store health for readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// pushUnreadCount sends the authoritative count read back from the store.
func (s *Service) pushUnreadCount(ctx context.Context, userID string) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("recipient_id", userID).Msg("failed to read unread count for push")
		return
	}
	s.emit(ctx, "unread_count", userID, func() error {
		return s.emitter.UnreadCountChanged(ctx, userID, count)
	})
}

// emit never fails the caller: the mutation already happened.
func (s *Service) emit(ctx context.Context, op, recipient string, fn func() error) {
	if s.emitter == nil {
		return
	}
	if err := fn(); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("op", op).
			Str("recipient_id", recipient).
			Msg("failed to emit notification event")
	}
}
