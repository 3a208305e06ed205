// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package breaker builds gobreaker circuit breakers that report their state
// to Prometheus and the log.
package breaker

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
)

// Config tunes one breaker.
type Config struct {
	Name string

	// FailureThreshold is the number of consecutive failures that opens it.
	FailureThreshold uint32

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts; zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration
}

// DefaultConfig opens after 5 consecutive failures for 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// New creates a breaker. isSuccessful may be nil; otherwise it decides which
// errors count as failures (a 404 is not a sign the server is down).
func New(cfg Config, isSuccessful func(err error) bool) *gobreaker.CircuitBreaker[any] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig(cfg.Name).FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(StateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: isSuccessful,
	}

	cb := gobreaker.NewCircuitBreaker[any](settings)
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	return cb
}

// StateValue maps a state to the gauge encoding (0 closed, 1 half-open, 2 open).
func StateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
