// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
	"github.com/tomtom215/animebell/internal/models"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ErrQueueFull is returned when the fan-out queue cannot take another event.
// The event is dropped; clients recover it on their next snapshot.
var ErrQueueFull = errors.New("websocket hub event queue full")

// RoomName is the log label for a user's room.
func RoomName(userID string) string {
	return "user_" + userID
}

// delivery is one encoded event on its way to a room.
type delivery struct {
	recipient string
	event     models.EventType
	frame     []byte
}

// Hub tracks rooms of connected clients and fans events out to them.
type Hub struct {
	opts   Options
	rooms  map[string]map[*Client]struct{}
	events chan delivery
	mu     sync.RWMutex
}

// NewHub creates a hub. It does nothing until RunWithContext is running.
func NewHub(opts Options) *Hub {
	if opts.EventBuffer < 1 {
		opts.EventBuffer = DefaultOptions().EventBuffer
	}
	return &Hub{
		opts:   opts,
		rooms:  make(map[string]map[*Client]struct{}),
		events: make(chan delivery, opts.EventBuffer),
	}
}

// Options returns the limits new clients are created with.
func (h *Hub) Options() Options {
	return h.opts
}

// Register adds c to the room of its user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	inRoom := len(room)
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	metrics.WSConnectionsTotal.Inc()
	metrics.WSRooms.Set(float64(rooms))

	logging.Ctx(c.ctx).Info().
		Str("room", RoomName(c.userID)).
		Int("room_connections", inRoom).
		Msg("websocket client connected")
}

// Unregister removes c from its room and closes its send channel. Calling it
// for a client that is already gone is a no-op.
func (h *Hub) Unregister(c *Client, reason string) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	rooms := len(h.rooms)
	h.mu.Unlock()

	if !removed {
		return
	}
	metrics.WSRooms.Set(float64(rooms))
	metrics.WSDisconnects.WithLabelValues(reason).Inc()
	logging.Ctx(c.ctx).Info().
		Str("room", RoomName(c.userID)).
		Str("reason", reason).
		Dur("connected_for", c.Age()).
		Msg("websocket client disconnected")
}

// removeLocked must be called with mu held. It reports whether c was present.
func (h *Hub) removeLocked(c *Client) bool {
	room, ok := h.rooms[c.userID]
	if !ok {
		return false
	}
	if _, ok := room[c]; !ok {
		return false
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.userID)
	}
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

// RunWithContext fans queued events out until ctx ends, then closes every
// client and returns ctx.Err(). Shutdown takes priority over pending events.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case d := <-h.events:
			h.fanOut(d)
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	closed := h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

// fanOut copies one frame to every client in the room. Clients are visited
// in connection order so delivery is reproducible in tests.
func (h *Hub) fanOut(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[d.recipient]
	if len(room) == 0 {
		metrics.WSEventsDropped.WithLabelValues("no_connection").Inc()
		return
	}

	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		select {
		case c.send <- d.frame:
			metrics.WSEventsSent.WithLabelValues(string(d.event)).Inc()
		default:
			// A stalled reader must not hold up the rest of the room.
			h.removeLocked(c)
			metrics.WSEventsDropped.WithLabelValues("client_evicted").Inc()
			metrics.WSDisconnects.WithLabelValues("slow_consumer").Inc()
			logging.Warn().
				Str("room", RoomName(c.userID)).
				Str("connection_id", c.connID).
				Msg("evicted websocket client with full send buffer")
		}
	}
	metrics.WSRooms.Set(float64(len(h.rooms)))
}

// closeAllClients empties every room and returns how many clients it closed.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for userID, room := range h.rooms {
		for c := range room {
			close(c.send)
			n++
		}
		delete(h.rooms, userID)
	}
	metrics.WSConnections.Sub(float64(n))
	metrics.WSRooms.Set(0)
	return n
}

// Deliver queues ev for every connection of recipient.
func (h *Hub) Deliver(recipient string, ev models.Event) error {
	frame, err := models.EncodeEvent(ev)
	if err != nil {
		return err
	}
	return h.enqueue(delivery{recipient: recipient, event: ev.Type(), frame: frame})
}

func (h *Hub) enqueue(d delivery) error {
	if !h.HasConnections(d.recipient) {
		metrics.WSEventsDropped.WithLabelValues("no_connection").Inc()
		return nil
	}
	select {
	case h.events <- d:
		return nil
	default:
		metrics.WSEventsDropped.WithLabelValues("hub_full").Inc()
		logging.Warn().Str("event", string(d.event)).Str("room", RoomName(d.recipient)).
			Msg("hub event queue full, dropping event")
		return ErrQueueFull
	}
}

// Notify pushes a newNotification event.
func (h *Hub) Notify(_ context.Context, recipient string, n *models.Notification) error {
	return h.Deliver(recipient, models.NewNotificationEvent{Notification: n})
}

// UnreadCountChanged pushes the authoritative unread count.
func (h *Hub) UnreadCountChanged(_ context.Context, recipient string, count int) error {
	return h.Deliver(recipient, models.UnreadCountEvent{Count: count})
}

// NotificationRemoved pushes a notificationDeleted event.
func (h *Hub) NotificationRemoved(_ context.Context, recipient, notificationID string) error {
	return h.Deliver(recipient, models.NotificationDeletedEvent{NotificationID: notificationID})
}

// HasConnections reports whether userID has at least one live connection.
func (h *Hub) HasConnections(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID]) > 0
}

// ClientCount returns the number of connections across all rooms.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// RoomSize returns the number of connections for userID.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// RoomCount returns the number of users with at least one connection.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
