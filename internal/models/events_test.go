// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeEventFrames(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		event Event
		want  []string
	}{
		{
			name: "new notification",
			event: NewNotificationEvent{Notification: &Notification{
				ID: "n1", Type: NotificationFriendRequest, SenderID: StringPtr("7"),
				RecipientID: "42", Message: "hi", CreatedAt: created,
			}},
			want: []string{`"event":"newNotification"`, `"id":"n1"`, `"sender_id":"7"`, `"is_read":false`, `"related_id":null`},
		},
		{
			name:  "unread count",
			event: UnreadCountEvent{Count: 3},
			want:  []string{`{"event":"unreadCountUpdate","data":{"count":3}}`},
		},
		{
			name:  "deleted",
			event: NotificationDeletedEvent{NotificationID: "n9"},
			want:  []string{`{"event":"notificationDeleted","data":{"notificationId":"n9"}}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(raw), w) {
					t.Errorf("frame %s missing %s", raw, w)
				}
			}
			back, err := DecodeEvent(raw)
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if back.Type() != tt.event.Type() {
				t.Errorf("decoded type %s, want %s", back.Type(), tt.event.Type())
			}
		})
	}
}

func TestEncodeEventRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, ev := range []Event{
		nil,
		NewNotificationEvent{},
		UnreadCountEvent{Count: -1},
		NotificationDeletedEvent{},
	} {
		if _, err := EncodeEvent(ev); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("EncodeEvent(%#v) error = %v, want ErrMalformedEvent", ev, err)
		}
	}
}

func TestDecodeEventErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{`, ErrMalformedEvent},
		{"unknown event", `{"event":"friendOnline","data":{}}`, ErrUnknownEvent},
		{"missing data", `{"event":"unreadCountUpdate"}`, ErrMalformedEvent},
		{"count missing", `{"event":"unreadCountUpdate","data":{}}`, ErrMalformedEvent},
		{"count wrong type", `{"event":"unreadCountUpdate","data":{"count":"3"}}`, ErrMalformedEvent},
		{"negative count", `{"event":"unreadCountUpdate","data":{"count":-2}}`, ErrMalformedEvent},
		{"null notification", `{"event":"newNotification","data":null}`, ErrMalformedEvent},
		{"notification without id", `{"event":"newNotification","data":{"message":"x"}}`, ErrMalformedEvent},
		{"deleted without id", `{"event":"notificationDeleted","data":{}}`, ErrMalformedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev, err := DecodeEvent([]byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeEvent(%s) = %v, %v; want %v", tt.raw, ev, err, tt.want)
			}
		})
	}
}

func TestNotificationCloneIsDeep(t *testing.T) {
	t.Parallel()

	n := &Notification{ID: "1", SenderID: StringPtr("7"), AnimeTitle: StringPtr("Frieren")}
	c := n.Clone()
	*c.SenderID = "8"
	*c.AnimeTitle = "Mushishi"

	if *n.SenderID != "7" || *n.AnimeTitle != "Frieren" {
		t.Error("Clone shares pointer fields with the original")
	}
	if (*Notification)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestNotificationTypeValid(t *testing.T) {
	t.Parallel()

	for _, typ := range []NotificationType{NotificationFriendRequest, NotificationFriendAccept, NotificationAnimeRecommend, NotificationSystem} {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if NotificationType("review_like").Valid() {
		t.Error("unknown type reported valid")
	}
}
