// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package websocket

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/animebell/internal/logging"
)

// clientIDCounter orders clients by connection time.
var clientIDCounter atomic.Uint64

// Client is one authenticated connection.
type Client struct {
	id        uint64
	connID    string
	userID    string
	createdAt time.Time

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	opts    Options

	// ctx only carries log fields; it is never canceled.
	ctx context.Context
}

// NewClient wraps an upgraded connection for userID. conn may be nil in tests
// that never start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	opts := hub.Options()
	connID := uuid.New().String()

	ctx := logging.ContextWithUserID(context.Background(), userID)
	ctx = logging.ContextWithConnectionID(ctx, connID)

	return &Client{
		id:        clientIDCounter.Add(1),
		connID:    connID,
		userID:    userID,
		createdAt: time.Now(),
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, opts.SendBuffer),
		limiter:   rate.NewLimiter(rate.Limit(opts.InboundRate), opts.InboundBurst),
		opts:      opts,
		ctx:       ctx,
	}
}

func (c *Client) ID() uint64           { return c.id }
func (c *Client) ConnectionID() string { return c.connID }
func (c *Client) UserID() string       { return c.userID }
func (c *Client) CreatedAt() time.Time { return c.createdAt }

// Age is how long the connection has been open.
func (c *Client) Age() time.Duration {
	return time.Since(c.createdAt)
}

// Start runs the pumps. The caller must have registered c first.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump keeps the read deadline alive and discards inbound data frames.
func (c *Client) readPump() {
	reason := "client_closed"
	defer func() {
		c.hub.Unregister(c, reason)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait)); err != nil {
		reason = "read_error"
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			reason = classifyReadError(err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) &&
				reason != "timeout" {
				logging.Ctx(c.ctx).Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		// Clients have nothing to say after the handshake.
		if !c.limiter.Allow() {
			reason = "rate_limited"
			deadline := time.Now().Add(c.opts.WriteWait)
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many messages")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			logging.Ctx(c.ctx).Warn().Msg("closing websocket client that exceeded inbound rate")
			return
		}
	}
}

func classifyReadError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return "client_closed"
	}
	if errors.Is(err, websocket.ErrReadLimit) {
		return "message_too_large"
	}
	return "read_error"
}

// writePump is the only writer of data frames, so per-connection order
// matches the order events were queued.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if !ok {
				// Hub closed the channel: evicted or shutting down.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Ctx(c.ctx).Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
