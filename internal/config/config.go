// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package config loads server and client settings with koanf.
//
// Sources, lowest priority first: built-in defaults, an optional YAML file
// (CONFIG_PATH, ./config.yaml, /etc/animebell/config.yaml), then environment
// variables. A .env file in the working directory is read into the
// environment before any of that happens.
package config

import "time"

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Store    StoreConfig    `koanf:"store"`
	Events   EventsConfig   `koanf:"events"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Environment     string        `koanf:"environment"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig covers token verification, CORS and REST rate limits.
type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	// TokenTTL only applies to tokens minted by the dev tooling.
	TokenTTL          time.Duration `koanf:"token_ttl"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// GatewayConfig tunes the WebSocket gateway.
type GatewayConfig struct {
	Path             string        `koanf:"path"`
	WriteWait        time.Duration `koanf:"write_wait"`
	PongWait         time.Duration `koanf:"pong_wait"`
	PingPeriod       time.Duration `koanf:"ping_period"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	MaxMessageSize   int64         `koanf:"max_message_size"`
	SendBuffer       int           `koanf:"send_buffer"`
	EventBuffer      int           `koanf:"event_buffer"`
	// Inbound messages per second allowed before a peer is dropped.
	InboundRate  float64 `koanf:"inbound_rate"`
	InboundBurst int     `koanf:"inbound_burst"`
}

// StoreConfig selects the notification store backend.
type StoreConfig struct {
	Backend         string        `koanf:"backend"` // memory, postgres, badger
	DatabaseURL     string        `koanf:"database_url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	BadgerPath      string        `koanf:"badger_path"`
	BadgerInMemory  bool          `koanf:"badger_in_memory"`
}

// EventsConfig selects how emitted events reach the gateway.
//
// "none" writes straight into the local hub. "memory" routes through an
// in-process watermill channel. "nats" fans out through NATS so every node
// behind a load balancer sees every event.
type EventsConfig struct {
	Backend       string        `koanf:"backend"`
	Topic         string        `koanf:"topic"`
	NATSURL       string        `koanf:"nats_url"`
	Embedded      bool          `koanf:"embedded"`
	EmbeddedHost  string        `koanf:"embedded_host"`
	EmbeddedPort  int           `koanf:"embedded_port"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	BufferSize    int64         `koanf:"buffer_size"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`
}

type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDevelopment reports whether relaxed checks apply.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
