// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// EventType names a server-to-client push event.
type EventType string

const (
	EventNewNotification     EventType = "newNotification"
	EventUnreadCountUpdate   EventType = "unreadCountUpdate"
	EventNotificationDeleted EventType = "notificationDeleted"
)

var (
	// ErrUnknownEvent is returned for an event name outside the closed set.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrMalformedEvent is returned when the frame or payload does not
	// match the shape its event name requires.
	ErrMalformedEvent = errors.New("malformed event payload")
)

// Event is one of NewNotificationEvent, UnreadCountEvent or
// NotificationDeletedEvent. The unexported method keeps the set closed.
type Event interface {
	Type() EventType
	payload() interface{}
	validate() error
}

// NewNotificationEvent carries a freshly created notification.
type NewNotificationEvent struct {
	Notification *Notification
}

func (NewNotificationEvent) Type() EventType { return EventNewNotification }

func (e NewNotificationEvent) payload() interface{} { return e.Notification }

func (e NewNotificationEvent) validate() error {
	if e.Notification == nil || e.Notification.ID == "" {
		return fmt.Errorf("%w: notification without id", ErrMalformedEvent)
	}
	return nil
}

// UnreadCountEvent carries the authoritative unread count.
type UnreadCountEvent struct {
	Count int `json:"count"`
}

func (UnreadCountEvent) Type() EventType { return EventUnreadCountUpdate }

func (e UnreadCountEvent) payload() interface{} { return e }

func (e UnreadCountEvent) validate() error {
	if e.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrMalformedEvent, e.Count)
	}
	return nil
}

// NotificationDeletedEvent names a notification that no longer exists.
type NotificationDeletedEvent struct {
	NotificationID string `json:"notificationId"`
}

func (NotificationDeletedEvent) Type() EventType { return EventNotificationDeleted }

func (e NotificationDeletedEvent) payload() interface{} { return e }

func (e NotificationDeletedEvent) validate() error {
	if e.NotificationID == "" {
		return fmt.Errorf("%w: empty notificationId", ErrMalformedEvent)
	}
	return nil
}

// Frame is the wire envelope: {"event":"unreadCountUpdate","data":{"count":3}}.
type Frame struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeEvent renders e as a Frame.
func EncodeEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e.payload())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	return json.Marshal(Frame{Event: e.Type(), Data: data})
}

// DecodeEvent parses a Frame and checks the payload against its event name.
func DecodeEvent(raw []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return DecodePayload(f.Event, f.Data)
}

// DecodePayload is DecodeEvent for callers that already split the frame.
func DecodePayload(t EventType, data []byte) (Event, error) {
	var ev Event
	switch t {
	case EventNewNotification:
		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev = NewNotificationEvent{Notification: &n}
	case EventUnreadCountUpdate:
		var p struct {
			Count *int `json:"count"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if p.Count == nil {
			return nil, fmt.Errorf("%w: missing count", ErrMalformedEvent)
		}
		ev = UnreadCountEvent{Count: *p.Count}
	case EventNotificationDeleted:
		var p NotificationDeletedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		ev = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
	}

	if err := ev.validate(); err != nil {
		return nil, err
	}
	return ev, nil
}
