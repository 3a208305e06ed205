// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package eventbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const embeddedReadyTimeout = 30 * time.Second

// EmbeddedServer runs a core NATS server inside the process, for single
// binary deployments that still want the NATS code path. Other nodes can
// connect to it at ClientURL.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// StartEmbeddedServer starts NATS on host:port. Port -1 picks a random port.
func StartEmbeddedServer(host string, port int) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "animebell-events",
		Host:       host,
		Port:       port,
		// Fan-out is fire and forget, so no JetStream storage.
		JetStream:  false,
		NoLog:      true,
		NoSigs:     true,
		MaxPayload: 1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(embeddedReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %s", embeddedReadyTimeout)
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// Shutdown stops the server and waits for it to exit.
func (s *EmbeddedServer) Shutdown() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
}
