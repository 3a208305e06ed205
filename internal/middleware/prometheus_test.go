// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/animebell/internal/metrics"
)

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Patch("/api/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodPatch, "/api/notifications/{id}/read", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a1", "b2", "c3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/notifications/"+id+"/read", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests counted under pattern = %v, want 3", got)
	}
}

func TestPrometheusMetrics_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status string
	}{
		{"implicit 200", func(w http.ResponseWriter) { _, _ = w.Write([]byte("ok")) }, "200"},
		{"explicit 500", func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) }, "500"},
		{"first header wins", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusNotFound)
			w.WriteHeader(http.StatusOK)
		}, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/raw/" + tt.status
			counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path, tt.status)
			before := testutil.ToFloat64(counter)

			h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.write(w)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("counter delta = %v, want 1", got)
			}
		})
	}
}

func TestPrometheusMetrics_ActiveGaugeReturnsToZero(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)
	var during float64
	h := PrometheusMetrics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("in-flight during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("in-flight after = %v, want %v", after, before)
	}
}
