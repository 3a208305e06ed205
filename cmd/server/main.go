// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/animebell/internal/api"
	"github.com/tomtom215/animebell/internal/auth"
	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/eventbus"
	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/notification"
	"github.com/tomtom215/animebell/internal/supervisor"
	"github.com/tomtom215/animebell/internal/supervisor/services"
	ws "github.com/tomtom215/animebell/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := mintToken(jwtManager, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store", cfg.Store.Backend).
		Str("events", cfg.Events.Backend).
		Msg("Starting Animebell")

	if err := run(cfg, jwtManager); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config, jwtManager *auth.JWTManager) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := notification.NewStore(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("open notification store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing notification store")
		}
	}()
	logging.Info().Str("backend", cfg.Store.Backend).Msg("Notification store ready")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLoggerFor("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	hub := ws.NewHub(ws.OptionsFromConfig(&cfg.Gateway))
	tree.AddMessagingService(services.NewHubService(hub))

	// Without a bus the service emits into the local hub directly.
	var emitter notification.Emitter = hub
	var bus *eventbus.Bus
	if cfg.Events.Backend != eventbus.BackendNone {
		bus, err = eventbus.Open(&cfg.Events)
		if err != nil {
			return fmt.Errorf("open event bus: %w", err)
		}
		// Closed after the tree has stopped the relay.
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		emitter = bus.Publisher()
		tree.AddMessagingService(bus.NewRelay(hub))
	}

	service := notification.NewService(store, emitter)

	handler := api.NewHandler(service, &cfg.API)
	handler.AddReadinessCheck("store", service.Ping)
	if bus != nil {
		handler.AddReadinessCheck("event_bus", bus.Ping)
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}

	router := api.NewRouter(api.RouterConfig{
		Handler:    handler,
		Verifier:   jwtManager,
		Middleware: api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		Socket:     ws.NewHandler(hub, jwtManager, cfg.Security.CORSOrigins),
		SocketPath: cfg.Gateway.Path,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", addr).Str("socket_path", cfg.Gateway.Path).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			treeErr = err
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return treeErr
}
