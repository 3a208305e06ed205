// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package models

import "time"

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccept   NotificationType = "friend_accept"
	NotificationAnimeRecommend NotificationType = "anime_recommend"
	NotificationSystem         NotificationType = "system"
)

// Valid reports whether t is one of the known types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFriendRequest, NotificationFriendAccept, NotificationAnimeRecommend, NotificationSystem:
		return true
	}
	return false
}

// Notification is one message addressed to a single recipient.
//
// After creation only IsRead may change (false to true). SenderID is nil for
// system notifications. The display fields are denormalized at creation time
// so the client never needs a second lookup.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	SenderID    *string          `json:"sender_id"`
	RecipientID string           `json:"recipient_id"`
	Message     string           `json:"message"`
	RelatedID   *string          `json:"related_id"`

	SenderName   *string `json:"sender_name,omitempty"`
	SenderAvatar *string `json:"sender_avatar,omitempty"`
	AnimeTitle   *string `json:"anime_title,omitempty"`

	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers can hand out notifications without
// sharing pointer fields.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	c.SenderID = cloneString(n.SenderID)
	c.RelatedID = cloneString(n.RelatedID)
	c.SenderName = cloneString(n.SenderName)
	c.SenderAvatar = cloneString(n.SenderAvatar)
	c.AnimeTitle = cloneString(n.AnimeTitle)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr is a small helper for optional fields.
func StringPtr(s string) *string {
	return &s
}

// ListResponse is the body of GET /api/notifications.
type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
}

// CountResponse is the body of GET /api/notifications/unread-count.
type CountResponse struct {
	Count int `json:"count"`
}

// MutationResponse is returned by the mark-read and delete endpoints.
// Updated and Deleted are only set by the bulk operations.
type MutationResponse struct {
	Message string `json:"message"`
	Updated *int64 `json:"updated,omitempty"`
	Deleted *int64 `json:"deleted,omitempty"`
}

// APIError is the error body shared by every endpoint:
// {"error":{"code":"NOT_FOUND","message":"Notification not found"}}.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps APIError.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}
