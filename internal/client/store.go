// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package client

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
	"github.com/tomtom215/animebell/internal/models"
)

// ErrStoreClosed is returned by every operation after Close, including
// requests that were already in flight.
var ErrStoreClosed = errors.New("notification store is closed")

// State is a copy of what the Store holds.
type State struct {
	Notifications []*models.Notification
	UnreadCount   int
}

// Store is the client-side cache of one user's notifications.
//
// Push deltas apply immediately. REST mutations apply only after the server
// acknowledged them. The unread count never goes below zero.
type Store struct {
	api API

	// ctx is cancelled by Close and aborts in-flight requests.
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	notifications []*models.Notification
	unread        int
	snapshotSeq   uint64
	closed        bool
	listeners     []func(State)
}

func NewStore(api API) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{api: api, ctx: ctx, cancel: cancel}
}

// OnChange registers fn to be called with a fresh State after every change.
// Callbacks run on the goroutine that made the change, outside the lock.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	list := make([]*models.Notification, len(s.notifications))
	for i, n := range s.notifications {
		list[i] = n.Clone()
	}
	return State{Notifications: list, UnreadCount: s.unread}
}

// update runs fn under the lock and notifies listeners if fn reports a change.
func (s *Store) update(fn func() bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if !fn() {
		s.mu.Unlock()
		return nil
	}
	state := s.stateLocked()
	listeners := append([]func(State){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
	return nil
}

// requestContext ties ctx to the Store's lifetime.
func (s *Store) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// FetchSnapshot loads one page from the server. Page 1 replaces the list;
// later pages append whatever is not already present. If another page-1
// fetch started after this one, this result is discarded.
func (s *Store) FetchSnapshot(ctx context.Context, page, pageSize int) error {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	var seq uint64
	if page == 1 {
		s.snapshotSeq++
		seq = s.snapshotSeq
	}
	s.mu.Unlock()

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	items, err := s.api.List(ctx, page, pageSize)
	if err != nil {
		if s.isClosed() {
			return ErrStoreClosed
		}
		return err
	}

	return s.update(func() bool {
		if page == 1 {
			if seq != s.snapshotSeq {
				logging.Debug().Uint64("seq", seq).Msg("discarding superseded snapshot")
				return false
			}
			s.notifications = cloneAll(items)
			return true
		}
		changed := false
		for _, n := range items {
			if !usable(n) {
				continue
			}
			if s.indexLocked(n.ID) < 0 {
				s.notifications = append(s.notifications, n.Clone())
				changed = true
			}
		}
		return changed
	})
}

// FetchUnreadCount replaces the count with the server's.
func (s *Store) FetchUnreadCount(ctx context.Context) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	count, err := s.api.UnreadCount(ctx)
	if err != nil {
		if s.isClosed() {
			return ErrStoreClosed
		}
		return err
	}
	return s.update(func() bool {
		s.unread = clampCount(count)
		return true
	})
}

// ApplyPushNotification prepends n. A duplicate id is ignored. The count is
// left alone; the server follows up with its own count.
func (s *Store) ApplyPushNotification(n *models.Notification) error {
	if !usable(n) {
		return nil
	}
	return s.update(func() bool {
		if s.indexLocked(n.ID) >= 0 {
			return false
		}
		s.notifications = append([]*models.Notification{n.Clone()}, s.notifications...)
		return true
	})
}

// ApplyPushUnreadCount replaces the count.
func (s *Store) ApplyPushUnreadCount(count int) error {
	return s.update(func() bool {
		s.unread = clampCount(count)
		return true
	})
}

// ApplyPushDeletion drops id if present.
func (s *Store) ApplyPushDeletion(id string) error {
	return s.update(func() bool {
		return s.removeLocked(id) != nil
	})
}

// Apply dispatches a decoded push event.
func (s *Store) Apply(ev models.Event) error {
	switch e := ev.(type) {
	case models.NewNotificationEvent:
		return s.ApplyPushNotification(e.Notification)
	case models.UnreadCountEvent:
		return s.ApplyPushUnreadCount(e.Count)
	case models.NotificationDeletedEvent:
		return s.ApplyPushDeletion(e.NotificationID)
	default:
		return models.ErrUnknownEvent
	}
}

// HandleEvent decodes one socket frame and applies it. Frames that do not
// decode are logged and dropped; state is untouched.
func (s *Store) HandleEvent(raw []byte) error {
	ev, err := models.DecodeEvent(raw)
	if err != nil {
		metrics.ClientEventsDropped.Inc()
		logging.Warn().Err(err).Int("bytes", len(raw)).Msg("dropping malformed push event")
		return err
	}
	return s.Apply(ev)
}

// MarkAsRead marks id read on the server, then locally.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	if err := s.call(ctx, func(ctx context.Context) error { return s.api.MarkRead(ctx, id) }); err != nil {
		return err
	}
	return s.update(func() bool {
		if i := s.indexLocked(id); i >= 0 {
			if s.notifications[i].IsRead {
				return false
			}
			s.notifications[i].IsRead = true
		}
		s.unread = clampCount(s.unread - 1)
		return true
	})
}

// MarkAllAsRead marks everything read on the server, then locally.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	if err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.api.MarkAllRead(ctx)
		return err
	}); err != nil {
		return err
	}
	return s.update(func() bool {
		for _, n := range s.notifications {
			n.IsRead = true
		}
		s.unread = 0
		return true
	})
}

// DeleteOne deletes id on the server, then locally.
func (s *Store) DeleteOne(ctx context.Context, id string) error {
	if err := s.call(ctx, func(ctx context.Context) error { return s.api.Delete(ctx, id) }); err != nil {
		return err
	}
	return s.update(func() bool {
		removed := s.removeLocked(id)
		if removed == nil {
			return false
		}
		if !removed.IsRead {
			s.unread = clampCount(s.unread - 1)
		}
		return true
	})
}

// DeleteAll deletes everything on the server, then locally.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.api.DeleteAll(ctx)
		return err
	}); err != nil {
		return err
	}
	return s.update(func() bool {
		s.notifications = nil
		s.unread = 0
		return true
	})
}

// Close cancels in-flight requests. Results that arrive later are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	return nil
}

func (s *Store) call(ctx context.Context, fn func(context.Context) error) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	if err := fn(ctx); err != nil {
		if s.isClosed() {
			return ErrStoreClosed
		}
		return err
	}
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) indexLocked(id string) int {
	for i, n := range s.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string) *models.Notification {
	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	n := s.notifications[i]
	s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
	return n
}

func cloneAll(items []*models.Notification) []*models.Notification {
	out := make([]*models.Notification, 0, len(items))
	for _, n := range items {
		if usable(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// usable drops entries a misbehaving server might send: null array slots
// and notifications without an id cannot be matched by later pushes.
func usable(n *models.Notification) bool {
	return n != nil && n.ID != ""
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
