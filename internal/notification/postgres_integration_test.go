// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

//go:build integration

package notification

import (
	"context"
	"testing"

	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewPostgresStore(ctx, &config.StoreConfig{
			Backend:      BackendPostgres,
			DatabaseURL:  pg.DSN,
			MaxOpenConns: 5,
		})
		if err != nil {
			t.Fatal(err)
		}
		// Each subtest starts from an empty table.
		if _, err := s.db.ExecContext(ctx, `TRUNCATE notifications`); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
