// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/animebell/internal/api"
	"github.com/tomtom215/animebell/internal/auth"
	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/models"
	"github.com/tomtom215/animebell/internal/notification"
	"github.com/tomtom215/animebell/internal/websocket"
)

const e2eSecret = "0123456789abcdef0123456789abcdef"

type liveServer struct {
	url     string
	service *notification.Service
	hub     *websocket.Hub
	jwt     *auth.JWTManager
}

func startLiveServer(t *testing.T) *liveServer {
	t.Helper()
	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{JWTSecret: e2eSecret, TokenTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	hub := websocket.NewHub(websocket.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()

	service := notification.NewService(notification.NewMemoryStore(), hub)
	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Handler:    api.NewHandler(service, nil),
		Verifier:   jwtManager,
		Middleware: api.NewChiMiddleware(&api.ChiMiddlewareConfig{RateLimitDisabled: true}),
		Socket:     websocket.NewHandler(hub, jwtManager, nil),
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &liveServer{url: srv.URL, service: service, hub: hub, jwt: jwtManager}
}

func (s *liveServer) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(userID, "user"+userID)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (s *liveServer) socketURL() string {
	return "ws" + strings.TrimPrefix(s.url, "http") + "/socket"
}

func (s *liveServer) create(t *testing.T, recipient, msg string) *models.Notification {
	t.Helper()
	n, err := s.service.Create(context.Background(), notification.CreateInput{
		Type:        models.NotificationAnimeRecommend,
		SenderID:    models.StringPtr("99"),
		RecipientID: recipient,
		Message:     msg,
		AnimeTitle:  models.StringPtr("Mushishi"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEndToEnd_SnapshotThenLivePushes(t *testing.T) {
	srv := startLiveServer(t)
	for i := 0; i < 3; i++ {
		srv.create(t, "1", "recommendation")
	}

	tokens := StaticToken(srv.token(t, "1"))
	store := NewStore(NewAPIClient(srv.url+"/api", tokens, 5*time.Second))
	defer store.Close()

	ctrl := NewController(ControllerOptions{
		Tokens: tokens,
		Dialer: NewWebSocketDialer(srv.socketURL()),
		Events: store,
		Resync: ResyncHook(store, 50),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	eventually(t, "initial snapshot", func() bool {
		st := store.Snapshot()
		return len(st.Notifications) == 3 && st.UnreadCount == 3
	})
	eventually(t, "room join", func() bool { return srv.hub.RoomSize("1") == 1 })

	created := srv.create(t, "1", "one more")
	eventually(t, "live push", func() bool {
		st := store.Snapshot()
		return len(st.Notifications) == 4 && st.UnreadCount == 4 && st.Notifications[0].ID == created.ID
	})

	if err := store.MarkAllAsRead(ctx); err != nil {
		t.Fatal(err)
	}
	if got := store.Snapshot().UnreadCount; got != 0 {
		t.Errorf("count after mark all = %d", got)
	}

	ctrl.Logout()
	select {
	case err := <-done:
		if !errors.Is(err, ErrControllerStopped) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("controller did not stop")
	}
	eventually(t, "room cleanup", func() bool { return srv.hub.RoomSize("1") == 0 })
}

func TestWebSocketDialer_Unauthorized(t *testing.T) {
	srv := startLiveServer(t)
	_, err := NewWebSocketDialer(srv.socketURL()).Dial(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !strings.Contains(err.Error(), "Invalid token") {
		t.Errorf("reason missing from %q", err)
	}
	if srv.hub.RoomCount() != 0 {
		t.Error("rejected handshake joined a room")
	}
}
