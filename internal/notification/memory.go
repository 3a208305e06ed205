// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package notification

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/animebell/internal/models"
)

type memoryEntry struct {
	n   *models.Notification
	seq uint64
}

// MemoryStore keeps notifications in process memory. It is the default for
// development and the backend used by most tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*memoryEntry
	seq    uint64
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.seq++
	s.byID[n.ID] = &memoryEntry{n: n.Clone(), seq: s.seq}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	e, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.n.Clone(), nil
}

// recipientLocked returns the recipient's entries newest first.
func (s *MemoryStore) recipientLocked(recipient string) []*memoryEntry {
	var out []*memoryEntry
	for _, e := range s.byID {
		if e.n.RecipientID == recipient {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].n.CreatedAt.Equal(out[j].n.CreatedAt) {
			return out[i].n.CreatedAt.After(out[j].n.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func (s *MemoryStore) List(_ context.Context, recipient string, limit, offset int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	entries := s.recipientLocked(recipient)
	out := make([]*models.Notification, 0, limit)
	for i := offset; i < len(entries) && len(out) < limit; i++ {
		out = append(out, entries[i].n.Clone())
	}
	return out, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, recipient string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	count := 0
	for _, e := range s.byID {
		if e.n.RecipientID == recipient && !e.n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	e, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if e.n.IsRead {
		return false, nil
	}
	e.n.IsRead = true
	return true, nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	var updated int64
	for _, e := range s.byID {
		if e.n.RecipientID == recipient && !e.n.IsRead {
			e.n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, recipient string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	entries := s.recipientLocked(recipient)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.n.ID)
		delete(s.byID, e.n.ID)
	}
	return ids, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.byID = make(map[string]*memoryEntry)
	return nil
}
