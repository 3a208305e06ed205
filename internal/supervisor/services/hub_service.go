// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package services

import (
	"context"
	"errors"
)

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
	ClientCount() int
}

// HubService runs the hub's fan-out loop. Canceling the context closes
// every open socket.
type HubService struct {
	hub ContextHub
}

func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service. A hub loop that returns while its
// context is still live is reported as a failure so suture restarts it.
func (s *HubService) Serve(ctx context.Context) error {
	err := s.hub.RunWithContext(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("hub loop exited unexpectedly")
	}
	return err
}

func (s *HubService) String() string {
	return "notification-hub"
}
