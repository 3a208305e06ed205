// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireUser(t *testing.T) {
	m := newTestManager(t)
	tok, err := m.GenerateToken("42", "")
	if err != nil {
		t.Fatal(err)
	}

	var gotUser string
	h := RequireUser(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		url        string
		header     string
		wantStatus int
		wantBody   string
		wantUser   string
	}{
		{"valid bearer", "/api/notifications", "Bearer " + tok, http.StatusNoContent, "", "42"},
		{"missing", "/api/notifications", "", http.StatusUnauthorized, ReasonNoToken, ""},
		{"invalid", "/api/notifications", "Bearer junk", http.StatusUnauthorized, ReasonInvalidToken, ""},
		{"query token not accepted", "/api/notifications?token=" + tok, "", http.StatusUnauthorized, ReasonNoToken, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			r := httptest.NewRequest("GET", tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %q missing %q", w.Body.String(), tt.wantBody)
			}
			if gotUser != tt.wantUser {
				t.Errorf("user = %q, want %q", gotUser, tt.wantUser)
			}
		})
	}
}
