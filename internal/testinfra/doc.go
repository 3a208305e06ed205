// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/notification/...
//
// # PostgreSQL
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//
//	store, err := notification.NewPostgresStore(ctx, &config.StoreConfig{
//	    Backend:     "postgres",
//	    DatabaseURL: pg.DSN,
//	})
//
// Tests are skipped when Docker is unavailable. The first run pulls the
// image; later runs use the local cache.
package testinfra
