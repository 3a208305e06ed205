// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/animebell/internal/models"
)

type emitted struct {
	kind      string
	recipient string
	id        string
	count     int
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (e *recordingEmitter) Notify(_ context.Context, recipient string, n *models.Notification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{kind: "notify", recipient: recipient, id: n.ID})
	return e.err
}

func (e *recordingEmitter) UnreadCountChanged(_ context.Context, recipient string, count int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{kind: "count", recipient: recipient, count: count})
	return e.err
}

func (e *recordingEmitter) NotificationRemoved(_ context.Context, recipient, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{kind: "removed", recipient: recipient, id: id})
	return e.err
}

func (e *recordingEmitter) take() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.events
	e.events = nil
	return out
}

func newTestService(t *testing.T) (*Service, *recordingEmitter) {
	t.Helper()
	em := &recordingEmitter{}
	svc := NewService(NewMemoryStore(), em)

	clock := baseTime
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("n%d", seq)
	}
	return svc, em
}

func create(t *testing.T, svc *Service, recipient string) *models.Notification {
	t.Helper()
	n, err := svc.Create(context.Background(), CreateInput{
		Type:        models.NotificationFriendRequest,
		SenderID:    models.StringPtr("99"),
		RecipientID: recipient,
		Message:     "alice sent you a friend request",
		SenderName:  models.StringPtr("alice"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return n
}

func TestService_CreateEmitsNotificationThenCount(t *testing.T) {
	svc, em := newTestService(t)

	n := create(t, svc, "42")
	if n.IsRead {
		t.Error("new notification should be unread")
	}
	if n.SenderName == nil || *n.SenderName != "alice" {
		t.Errorf("SenderName = %v", n.SenderName)
	}

	got := em.take()
	want := []emitted{
		{kind: "notify", recipient: "42", id: n.ID},
		{kind: "count", recipient: "42", count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("events = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, em := newTestService(t)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"unknown type", CreateInput{Type: "poke", RecipientID: "1", Message: "hi"}},
		{"no recipient", CreateInput{Type: models.NotificationSystem, Message: "hi"}},
		{"blank message", CreateInput{Type: models.NotificationSystem, RecipientID: "1", Message: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Create = %v, want ErrInvalidInput", err)
			}
		})
	}
	if ev := em.take(); len(ev) != 0 {
		t.Errorf("invalid input emitted %+v", ev)
	}
}

func TestService_EmitFailureDoesNotFailCreate(t *testing.T) {
	svc, em := newTestService(t)
	em.err = errors.New("bus down")

	if _, err := svc.Create(context.Background(), CreateInput{
		Type: models.NotificationSystem, RecipientID: "1", Message: "maintenance tonight",
	}); err != nil {
		t.Fatalf("Create = %v, want nil", err)
	}
}

func TestService_ListPaging(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 25; i++ {
		create(t, svc, "1")
	}
	ctx := context.Background()

	tests := []struct {
		name        string
		page, limit int
		wantLen     int
		wantFirst   string
	}{
		{"defaults", 0, 0, DefaultPageSize, "n25"},
		{"second page", 2, 10, 10, "n15"},
		{"last partial page", 3, 10, 5, "n5"},
		{"limit over max falls back", 1, MaxPageSize + 1, DefaultPageSize, "n25"},
		{"past the end", 9, 10, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, "1", tt.page, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantFirst {
				t.Errorf("first = %s, want %s", got[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestService_MarkRead(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()
	n := create(t, svc, "1")
	create(t, svc, "1")
	em.take()

	if err := svc.MarkRead(ctx, "1", n.ID); err != nil {
		t.Fatal(err)
	}
	got := em.take()
	if len(got) != 1 || got[0] != (emitted{kind: "count", recipient: "1", count: 1}) {
		t.Errorf("events = %+v", got)
	}

	// Already read: success, nothing pushed.
	if err := svc.MarkRead(ctx, "1", n.ID); err != nil {
		t.Fatal(err)
	}
	if got := em.take(); len(got) != 0 {
		t.Errorf("re-marking emitted %+v", got)
	}
}

func TestService_Ownership(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()
	n := create(t, svc, "1")
	em.take()

	if err := svc.MarkRead(ctx, "2", n.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("MarkRead by other = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, "2", n.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete by other = %v, want ErrForbidden", err)
	}
	if err := svc.MarkRead(ctx, "1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead(unknown) = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) = %v, want ErrNotFound", err)
	}
	if got := em.take(); len(got) != 0 {
		t.Errorf("rejected mutations emitted %+v", got)
	}
	if c, _ := svc.UnreadCount(ctx, "1"); c != 1 {
		t.Errorf("UnreadCount = %d, want 1", c)
	}
}

func TestService_MarkAllRead(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()
	create(t, svc, "1")
	create(t, svc, "1")
	create(t, svc, "1")
	em.take()

	updated, err := svc.MarkAllRead(ctx, "1")
	if err != nil || updated != 3 {
		t.Fatalf("MarkAllRead = %d, %v; want 3", updated, err)
	}
	got := em.take()
	if len(got) != 1 || got[0].count != 0 {
		t.Errorf("events = %+v", got)
	}

	updated, err = svc.MarkAllRead(ctx, "1")
	if err != nil || updated != 0 {
		t.Errorf("second MarkAllRead = %d, %v; want 0", updated, err)
	}
	if got := em.take(); len(got) != 0 {
		t.Errorf("no-op MarkAllRead emitted %+v", got)
	}
}

func TestService_Delete(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()
	unread := create(t, svc, "1")
	read := create(t, svc, "1")
	if err := svc.MarkRead(ctx, "1", read.ID); err != nil {
		t.Fatal(err)
	}
	em.take()

	if err := svc.Delete(ctx, "1", read.ID); err != nil {
		t.Fatal(err)
	}
	got := em.take()
	if len(got) != 1 || got[0] != (emitted{kind: "removed", recipient: "1", id: read.ID}) {
		t.Errorf("deleting a read notification emitted %+v", got)
	}

	if err := svc.Delete(ctx, "1", unread.ID); err != nil {
		t.Fatal(err)
	}
	got = em.take()
	want := []emitted{
		{kind: "removed", recipient: "1", id: unread.ID},
		{kind: "count", recipient: "1", count: 0},
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("deleting an unread notification emitted %+v", got)
	}
}

func TestService_DeleteAll(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()
	create(t, svc, "1")
	create(t, svc, "1")
	create(t, svc, "2")
	em.take()

	deleted, err := svc.DeleteAll(ctx, "1")
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteAll = %d, %v; want 2", deleted, err)
	}
	got := em.take()
	if len(got) != 3 {
		t.Fatalf("events = %+v", got)
	}
	for _, ev := range got[:2] {
		if ev.kind != "removed" || ev.recipient != "1" {
			t.Errorf("event = %+v", ev)
		}
	}
	if got[2] != (emitted{kind: "count", recipient: "1", count: 0}) {
		t.Errorf("last event = %+v", got[2])
	}

	if c, _ := svc.UnreadCount(ctx, "2"); c != 1 {
		t.Errorf("other user's count = %d, want 1", c)
	}

	deleted, err = svc.DeleteAll(ctx, "1")
	if err != nil || deleted != 0 {
		t.Errorf("second DeleteAll = %d, %v", deleted, err)
	}
	if got := em.take(); len(got) != 0 {
		t.Errorf("empty DeleteAll emitted %+v", got)
	}
}

func TestService_DeleteAllLargeBatchPushesCountOnly(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		wantRemoved int
	}{
		{"at limit", MaxDeletionPushes, MaxDeletionPushes},
		{"over limit", MaxDeletionPushes + 1, 0},
		{"far over limit", 2000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, em := newTestService(t)
			for i := 0; i < tt.n; i++ {
				create(t, svc, "1")
			}
			em.take()

			deleted, err := svc.DeleteAll(context.Background(), "1")
			if err != nil || deleted != int64(tt.n) {
				t.Fatalf("DeleteAll = %d, %v; want %d", deleted, err, tt.n)
			}
			got := em.take()
			if len(got) != tt.wantRemoved+1 {
				t.Fatalf("events = %d, want %d", len(got), tt.wantRemoved+1)
			}
			if last := got[len(got)-1]; last != (emitted{kind: "count", recipient: "1", count: 0}) {
				t.Errorf("last event = %+v", last)
			}
		})
	}
}

func TestService_NilEmitter(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	if _, err := svc.Create(context.Background(), CreateInput{
		Type: models.NotificationSystem, RecipientID: "1", Message: "hi",
	}); err != nil {
		t.Fatal(err)
	}
}
