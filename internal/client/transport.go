// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/animebell/internal/models"
)

// ErrUnauthorized means the server refused the handshake credential.
var ErrUnauthorized = errors.New("handshake rejected: unauthorized")

// Conn is one established socket.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens a Conn with the given credential.
type Dialer interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// DefaultIdleTimeout closes a socket that saw neither a frame nor a ping
// for this long. The server pings every 60s.
const DefaultIdleTimeout = 130 * time.Second

// WebSocketDialer dials the gateway with gorilla/websocket. The token goes
// in the query and in the Authorization header; the server accepts either.
type WebSocketDialer struct {
	URL         string
	IdleTimeout time.Duration
	Dialer      *websocket.Dialer
}

func NewWebSocketDialer(socketURL string) *WebSocketDialer {
	return &WebSocketDialer{
		URL:         socketURL,
		IdleTimeout: DefaultIdleTimeout,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, token string) (Conn, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := d.Dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, handshakeReason(resp))
		}
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return newWSConn(conn, d.IdleTimeout), nil
}

func handshakeReason(resp *http.Response) string {
	var er models.ErrorResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(body, &er) == nil && er.Error != nil {
		return er.Error.Message
	}
	return resp.Status
}

// wsConn refreshes the read deadline on every frame and ping.
type wsConn struct {
	conn *websocket.Conn
	idle time.Duration

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(conn *websocket.Conn, idle time.Duration) *wsConn {
	c := &wsConn{conn: conn, idle: idle}
	if idle > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(idle))
		conn.SetPingHandler(func(appData string) error {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
			err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		})
	}
	return c
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if c.idle > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.idle))
		}
		if mt == websocket.TextMessage {
			return data, nil
		}
	}
}

// Close sends a close frame and closes the socket. Safe to call twice.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"),
			time.Now().Add(time.Second),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
