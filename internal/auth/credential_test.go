// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestExtractCredential(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		header  string
		want    string
		wantErr error
	}{
		{"query token", "/socket?token=abc", "", "abc", nil},
		{"query wins over header", "/socket?token=abc", "Bearer xyz", "abc", nil},
		{"bearer header", "/socket", "Bearer xyz", "xyz", nil},
		{"lowercase scheme", "/socket", "bearer xyz", "xyz", nil},
		{"basic scheme ignored", "/socket", "Basic Zm9vOmJhcg==", "", ErrNoCredential},
		{"bare bearer", "/socket", "Bearer", "", ErrNoCredential},
		{"nothing", "/socket", "", "", ErrNoCredential},
		{"blank query", "/socket?token=%20", "", "", ErrNoCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractCredential(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRejectionReason(t *testing.T) {
	if got := RejectionReason(ErrNoCredential); got != ReasonNoToken {
		t.Errorf("missing: %q", got)
	}
	if got := RejectionReason(errors.Join(ErrInvalidCredential, errors.New("token is expired"))); got != ReasonInvalidToken {
		t.Errorf("invalid: %q", got)
	}
	if FailureLabel(ErrNoCredential) != "missing_token" || FailureLabel(ErrInvalidCredential) != "invalid_token" {
		t.Error("unexpected failure labels")
	}
}

func TestAuthenticate(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.GenerateToken("7", "")
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest("GET", "/socket?token="+tok, nil)
	id, err := Authenticate(r, m)
	if err != nil || id != "7" {
		t.Fatalf("Authenticate = %q, %v", id, err)
	}

	r = httptest.NewRequest("GET", "/socket", nil)
	if _, err := Authenticate(r, m); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}
