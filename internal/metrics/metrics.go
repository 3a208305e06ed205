// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package metrics registers the Prometheus collectors for the gateway, the
// REST API, the notification store, the event bus and the client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// WebSocket gateway
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_rooms",
			Help: "Current number of users with at least one connection",
		},
	)

	WSConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total number of admitted WebSocket connections",
		},
	)

	WSEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_sent_total",
			Help: "Events queued to client connections",
		},
		[]string{"event"},
	)

	WSEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_dropped_total",
			Help: "Events not delivered (no_connection, hub_full, client_evicted)",
		},
		[]string{"reason"},
	)

	WSDisconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_disconnects_total",
			Help: "Connection removals by cause",
		},
		[]string{"reason"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected credentials by transport (socket, rest) and reason",
		},
		[]string{"transport", "reason"},
	)

	// Notification store
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_store_operation_duration_seconds",
			Help:    "Duration of notification store operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_store_errors_total",
			Help: "Failed notification store operations",
		},
		[]string{"backend", "operation"},
	)

	// Event bus
	BusPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_published_total",
			Help: "Events published to the bus",
		},
		[]string{"event"},
	)

	BusPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_bus_publish_errors_total",
			Help: "Failed bus publishes",
		},
	)

	BusConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_bus_consumed_total",
			Help: "Bus messages handed to the local gateway",
		},
		[]string{"event"},
	)

	BusMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_bus_malformed_total",
			Help: "Bus messages dropped because they could not be decoded",
		},
	)

	// Client side
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	ClientConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_connect_attempts_total",
			Help: "Client socket connect attempts by outcome",
		},
		[]string{"outcome"},
	)

	ClientResyncs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_resyncs_total",
			Help: "Snapshot refetches triggered by a (re)connect",
		},
	)

	ClientEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_events_dropped_total",
			Help: "Pushed frames the client could not decode",
		},
	)
)

// RecordAPIRequest records one finished request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation records latency and, when err is non-nil, a failure.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}
