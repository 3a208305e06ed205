// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if got := len(GenerateRequestID()); got != 36 {
		t.Errorf("request id length = %d, want 36", got)
	}
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation id length = %d, want 8", got)
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("request ids should be unique")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || UserIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no ids")
	}

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithUserID(ctx, "42")
	ctx = ContextWithConnectionID(ctx, "conn-9")
	ctx = ContextWithCorrelationID(ctx, "abcd1234")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got := UserIDFromContext(ctx); got != "42" {
		t.Errorf("user id = %q", got)
	}
	if got := ConnectionIDFromContext(ctx); got != "conn-9" {
		t.Errorf("connection id = %q", got)
	}
	if got := CorrelationIDFromContext(ctx); got != "abcd1234" {
		t.Errorf("correlation id = %q", got)
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(Config{Level: "info", Output: &bytes.Buffer{}})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "42")
	Ctx(ctx).Info().Msg("listed notifications")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("request_id missing: %s", out)
	}
	if !strings.Contains(out, `"user_id":"42"`) {
		t.Errorf("user_id missing: %s", out)
	}
	if strings.Contains(out, "connection_id") {
		t.Errorf("unset connection_id should not be logged: %s", out)
	}
}
