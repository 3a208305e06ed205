// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
)

// Reconnect defaults.
const (
	DefaultInitialDelay     = 2 * time.Second
	DefaultMaxDelay         = 10 * time.Second
	DefaultMaxAttempts      = 10
	DefaultHandshakeTimeout = 45 * time.Second
)

var (
	// ErrReconnectExhausted is returned by Run after MaxAttempts consecutive
	// failures.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

	// ErrControllerStopped is returned by Run after Logout or Close.
	ErrControllerStopped = errors.New("controller stopped")
)

// ConnState is the controller's position in the connect cycle.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateAuthenticating
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventHandler consumes raw frames. *Store implements it.
type EventHandler interface {
	HandleEvent(raw []byte) error
}

// Timer is the part of *time.Timer the controller uses.
type Timer interface {
	Stop() bool
}

// Clock schedules retries. Tests swap in a fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ControllerOptions wires a Controller. Tokens, Dialer and Events are
// required.
type ControllerOptions struct {
	Tokens TokenSource
	Dialer Dialer
	Events EventHandler

	// Resync runs once per successful connect, before any frame is read.
	Resync func(ctx context.Context) error

	InitialDelay     time.Duration
	MaxDelay         time.Duration
	MaxAttempts      int
	HandshakeTimeout time.Duration

	Clock         Clock
	OnStateChange func(ConnState)
}

// ResyncHook refetches page 1 and the unread count.
func ResyncHook(store *Store, pageSize int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return errors.Join(
			store.FetchSnapshot(ctx, 1, pageSize),
			store.FetchUnreadCount(ctx),
		)
	}
}

// Controller keeps one socket open for as long as it is allowed to.
type Controller struct {
	opts ControllerOptions

	mu      sync.Mutex
	state   ConnState
	conn    Conn
	timer   Timer
	stopped bool
	stopCh  chan struct{}
}

func NewController(opts ControllerOptions) *Controller {
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.MaxDelay < opts.InitialDelay {
		opts.MaxDelay = DefaultMaxDelay
		if opts.MaxDelay < opts.InitialDelay {
			opts.MaxDelay = opts.InitialDelay
		}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	return &Controller{opts: opts, stopCh: make(chan struct{})}
}

// State returns the current state.
func (c *Controller) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s ConnState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	logging.Debug().Str("state", s.String()).Msg("notification socket state")
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(s)
	}
}

// Backoff returns the delay before retry number attempt (1-based):
// InitialDelay doubled per attempt, capped at MaxDelay.
func (c *Controller) Backoff(attempt int) time.Duration {
	d := c.opts.InitialDelay
	for i := 1; i < attempt && d < c.opts.MaxDelay; i++ {
		d *= 2
	}
	if d > c.opts.MaxDelay {
		d = c.opts.MaxDelay
	}
	return d
}

// Run connects and reconnects until ctx ends, Logout is called, the token
// source runs dry or MaxAttempts consecutive attempts fail.
func (c *Controller) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	failures := 0
	for {
		if c.isStopped() {
			return ErrControllerStopped
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		connected, err := c.attempt(ctx)
		if errors.Is(err, ErrNoCredential) {
			return err
		}
		if c.isStopped() {
			return ErrControllerStopped
		}
		// A dropped session is not a failed attempt; only failed dials
		// count against the budget.
		if connected {
			failures = 0
		} else {
			failures++
		}
		c.setState(StateDisconnected)

		if failures >= c.opts.MaxAttempts {
			logging.Warn().Int("attempts", c.opts.MaxAttempts).Msg("giving up on notification socket")
			return ErrReconnectExhausted
		}

		delay := c.Backoff(max(failures, 1))
		logging.Info().
			Err(err).
			Int("failures", failures).
			Dur("retry_in", delay).
			Msg("notification socket disconnected")

		if err := c.wait(ctx, delay); err != nil {
			return err
		}
	}
}

// attempt runs one connect cycle. connected reports whether the handshake
// succeeded; err is why the cycle ended.
func (c *Controller) attempt(ctx context.Context) (connected bool, err error) {
	c.setState(StateConnecting)
	token, err := c.opts.Tokens.Token(ctx)
	if err == nil && token == "" {
		err = ErrNoCredential
	}
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			err = fmt.Errorf("%w: %v", ErrNoCredential, err)
		}
		metrics.ClientConnectAttempts.WithLabelValues("no_credential").Inc()
		return false, err
	}

	c.setState(StateAuthenticating)
	dialCtx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	conn, err := c.opts.Dialer.Dial(dialCtx, token)
	cancel()
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrUnauthorized) {
			outcome = "unauthorized"
		}
		metrics.ClientConnectAttempts.WithLabelValues(outcome).Inc()
		return false, err
	}
	metrics.ClientConnectAttempts.WithLabelValues("connected").Inc()

	if !c.setConn(conn) {
		_ = conn.Close()
		return true, ErrControllerStopped
	}
	defer c.clearConn(conn)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c.setState(StateConnected)
	if c.opts.Resync != nil {
		metrics.ClientResyncs.Inc()
		if err := c.opts.Resync(ctx); err != nil {
			logging.Warn().Err(err).Msg("resync after connect failed")
		}
	}

	return true, c.readLoop(conn)
}

func (c *Controller) readLoop(conn Conn) error {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		// Malformed frames are logged by the handler and skipped.
		_ = c.opts.Events.HandleEvent(raw)
	}
}

func (c *Controller) setConn(conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.conn = conn
	return true
}

func (c *Controller) clearConn(conn Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}

func (c *Controller) wait(ctx context.Context, d time.Duration) error {
	fired := make(chan struct{})

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrControllerStopped
	}
	c.timer = c.opts.Clock.AfterFunc(d, func() { close(fired) })
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.mu.Unlock()
	}()

	select {
	case <-fired:
		return nil
	case <-c.stopCh:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Logout closes the socket and cancels any pending retry before returning.
// No reconnect happens afterwards.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close is Logout.
func (c *Controller) Close() error {
	c.Logout()
	return nil
}
