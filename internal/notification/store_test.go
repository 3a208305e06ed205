// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package notification

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixture(id, recipient string, age time.Duration, read bool) *models.Notification {
	return &models.Notification{
		ID:          id,
		Type:        models.NotificationSystem,
		RecipientID: recipient,
		Message:     "message " + id,
		IsRead:      read,
		CreatedAt:   baseTime.Add(-age),
	}
}

func ids(ns []*models.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runStoreSuite checks the behavior every backend must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	seed := func(t *testing.T, s Store) {
		t.Helper()
		for _, n := range []*models.Notification{
			fixture("a", "1", 3*time.Minute, false),
			fixture("b", "1", 2*time.Minute, true),
			fixture("c", "1", 1*time.Minute, false),
			fixture("x", "2", 1*time.Minute, false),
		} {
			if err := s.Create(ctx, n); err != nil {
				t.Fatalf("Create(%s): %v", n.ID, err)
			}
		}
	}

	t.Run("get", func(t *testing.T) {
		s := newStore(t)
		n := fixture("g1", "1", 0, false)
		n.SenderID = models.StringPtr("7")
		n.AnimeTitle = models.StringPtr("Frieren")
		if err := s.Create(ctx, n); err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(ctx, "g1")
		if err != nil {
			t.Fatal(err)
		}
		if got.RecipientID != "1" || got.SenderID == nil || *got.SenderID != "7" {
			t.Errorf("Get = %+v", got)
		}
		if got.AnimeTitle == nil || *got.AnimeTitle != "Frieren" {
			t.Errorf("AnimeTitle = %v", got.AnimeTitle)
		}
		if got.RelatedID != nil {
			t.Errorf("RelatedID = %v, want nil", *got.RelatedID)
		}
		if !got.CreatedAt.Equal(n.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, n.CreatedAt)
		}

		if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("recipient ids sharing a prefix stay separate", func(t *testing.T) {
		s := newStore(t)
		for _, n := range []*models.Notification{
			fixture("p1", "u", 2*time.Minute, false),
			fixture("p2", "u:1", 1*time.Minute, false),
			fixture("p3", "u:", 0, false),
		} {
			if err := s.Create(ctx, n); err != nil {
				t.Fatalf("Create(%s): %v", n.ID, err)
			}
		}

		tests := []struct {
			recipient string
			want      []string
		}{
			{"u", []string{"p1"}},
			{"u:1", []string{"p2"}},
			{"u:", []string{"p3"}},
		}
		for _, tt := range tests {
			got, err := s.List(ctx, tt.recipient, 10, 0)
			if err != nil {
				t.Fatal(err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("List(%q) = %v, want %v", tt.recipient, ids(got), tt.want)
			}
			if n, err := s.UnreadCount(ctx, tt.recipient); err != nil || n != 1 {
				t.Errorf("UnreadCount(%q) = %d, %v; want 1", tt.recipient, n, err)
			}
		}

		deleted, err := s.DeleteAll(ctx, "u")
		if err != nil {
			t.Fatal(err)
		}
		if len(deleted) != 1 || deleted[0] != "p1" {
			t.Errorf("DeleteAll(u) = %v, want [p1]", deleted)
		}
		if n, _ := s.UnreadCount(ctx, "u:1"); n != 1 {
			t.Errorf("UnreadCount(u:1) after DeleteAll(u) = %d, want 1", n)
		}
	})

	t.Run("list newest first with paging", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		tests := []struct {
			limit, offset int
			want          []string
		}{
			{10, 0, []string{"c", "b", "a"}},
			{2, 0, []string{"c", "b"}},
			{2, 2, []string{"a"}},
			{2, 4, []string{}},
		}
		for _, tt := range tests {
			got, err := s.List(ctx, "1", tt.limit, tt.offset)
			if err != nil {
				t.Fatal(err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("List(limit=%d, offset=%d) = %v, want %v", tt.limit, tt.offset, ids(got), tt.want)
			}
		}
	})

	t.Run("unread count", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		if n, err := s.UnreadCount(ctx, "1"); err != nil || n != 2 {
			t.Errorf("UnreadCount(1) = %d, %v; want 2", n, err)
		}
		if n, err := s.UnreadCount(ctx, "nobody"); err != nil || n != 0 {
			t.Errorf("UnreadCount(nobody) = %d, %v; want 0", n, err)
		}
	})

	t.Run("mark read", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		changed, err := s.MarkRead(ctx, "a")
		if err != nil || !changed {
			t.Fatalf("MarkRead(a) = %v, %v; want true", changed, err)
		}
		changed, err = s.MarkRead(ctx, "a")
		if err != nil || changed {
			t.Errorf("second MarkRead(a) = %v, %v; want false, nil", changed, err)
		}
		if _, err := s.MarkRead(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("MarkRead(missing) = %v, want ErrNotFound", err)
		}
		if n, _ := s.UnreadCount(ctx, "1"); n != 1 {
			t.Errorf("UnreadCount = %d, want 1", n)
		}
	})

	t.Run("mark all read", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		updated, err := s.MarkAllRead(ctx, "1")
		if err != nil || updated != 2 {
			t.Fatalf("MarkAllRead = %d, %v; want 2", updated, err)
		}
		list, _ := s.List(ctx, "1", 10, 0)
		for _, n := range list {
			if !n.IsRead {
				t.Errorf("%s still unread", n.ID)
			}
		}
		if n, _ := s.UnreadCount(ctx, "2"); n != 1 {
			t.Errorf("other user's unread count = %d, want 1", n)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		if err := s.Delete(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete = %v, want ErrNotFound", err)
		}
		list, _ := s.List(ctx, "1", 10, 0)
		if !equalIDs(ids(list), []string{"c", "a"}) {
			t.Errorf("List after delete = %v", ids(list))
		}
	})

	t.Run("delete all", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		deleted, err := s.DeleteAll(ctx, "1")
		if err != nil {
			t.Fatal(err)
		}
		sort.Strings(deleted)
		if !equalIDs(deleted, []string{"a", "b", "c"}) {
			t.Errorf("DeleteAll = %v", deleted)
		}
		if list, _ := s.List(ctx, "1", 10, 0); len(list) != 0 {
			t.Errorf("List after DeleteAll = %v", ids(list))
		}
		if list, _ := s.List(ctx, "2", 10, 0); len(list) != 1 {
			t.Errorf("other user lost notifications: %v", ids(list))
		}
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, _ := s.Get(ctx, "a")
		got.IsRead = true
		again, _ := s.Get(ctx, "a")
		if again.IsRead {
			t.Error("mutating a returned notification changed the store")
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := newStore(t).Ping(ctx); err != nil {
			t.Errorf("Ping = %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s := NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	s.Close()
	if err := s.Create(context.Background(), fixture("a", "1", 0, false)); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Create after Close = %v, want ErrStoreClosed", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Ping after Close = %v, want ErrStoreClosed", err)
	}
}

func TestBadgerStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewBadgerStore(&config.StoreConfig{Backend: BackendBadger, BadgerInMemory: true})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	cfg := &config.StoreConfig{Backend: BackendBadger, BadgerPath: t.TempDir()}
	ctx := context.Background()

	s, err := NewBadgerStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, fixture("p1", "1", 0, false)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = NewBadgerStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if n, err := s.UnreadCount(ctx, "1"); err != nil || n != 1 {
		t.Errorf("UnreadCount after reopen = %d, %v; want 1", n, err)
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, &config.StoreConfig{Backend: BackendMemory})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("NewStore(memory) = %T", s)
	}

	if _, err := NewStore(ctx, &config.StoreConfig{Backend: "mongo"}); err == nil {
		t.Error("unknown backend should fail")
	}
	if _, err := NewStore(ctx, &config.StoreConfig{Backend: BackendPostgres}); err == nil {
		t.Error("postgres without a database url should fail")
	}
}
