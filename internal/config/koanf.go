// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/animebell/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Environment:     "production",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Security: SecurityConfig{
			TokenTTL:        24 * time.Hour,
			CORSOrigins:     []string{"http://localhost:5173"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Gateway: GatewayConfig{
			Path:             "/socket",
			WriteWait:        10 * time.Second,
			PongWait:         120 * time.Second,
			PingPeriod:       60 * time.Second,
			HandshakeTimeout: 45 * time.Second,
			MaxMessageSize:   4096,
			SendBuffer:       256,
			EventBuffer:      1024,
			InboundRate:      5,
			InboundBurst:     20,
		},
		Store: StoreConfig{
			Backend:         "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			BadgerPath:      "/data/notifications",
		},
		Events: EventsConfig{
			Backend:       "none",
			Topic:         "notifications.events",
			NATSURL:       "nats://127.0.0.1:4222",
			EmbeddedHost:  "127.0.0.1",
			EmbeddedPort:  4222,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			BufferSize:    256,
			CloseTimeout:  10 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf builds the server Config from defaults, file and environment,
// then validates it.
func LoadWithKoanf() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := load(defaultConfig(), serverEnvMappings, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv reads .env without overriding variables already set.
// A missing file is normal in containers.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}
}

func load(defaults interface{}, mappings map[string]string, out interface{}) error {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// JWT_SECRET -> security.jwt_secret, etc. Unmapped variables are ignored.
	transform := func(key string) string {
		return mappings[strings.ToLower(key)]
	}
	if err := k.Load(env.Provider("", ".", transform), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return fmt.Errorf("failed to process slice fields: %w", err)
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths hold lists that arrive from the environment as
// comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var serverEnvMappings = map[string]string{
	"http_host":         "server.host",
	"http_port":         "server.port",
	"port":              "server.port",
	"environment":       "server.environment",
	"http_read_timeout": "server.read_timeout",
	"shutdown_timeout":  "server.shutdown_timeout",

	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
	"client_url":          "security.cors_origins",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"ws_path":              "gateway.path",
	"ws_ping_interval":     "gateway.ping_period",
	"ws_ping_timeout":      "gateway.pong_wait",
	"ws_write_wait":        "gateway.write_wait",
	"ws_connect_timeout":   "gateway.handshake_timeout",
	"ws_send_buffer":       "gateway.send_buffer",
	"ws_max_message_size":  "gateway.max_message_size",
	"ws_inbound_rate":      "gateway.inbound_rate",
	"ws_inbound_burst":     "gateway.inbound_burst",
	"ws_event_buffer_size": "gateway.event_buffer",

	"store_backend":     "store.backend",
	"database_url":      "store.database_url",
	"db_max_open_conns": "store.max_open_conns",
	"db_max_idle_conns": "store.max_idle_conns",
	"badger_path":       "store.badger_path",
	"badger_in_memory":  "store.badger_in_memory",

	"events_backend":      "events.backend",
	"events_topic":        "events.topic",
	"nats_url":            "events.nats_url",
	"nats_embedded":       "events.embedded",
	"nats_embedded_host":  "events.embedded_host",
	"nats_embedded_port":  "events.embedded_port",
	"nats_max_reconnects": "events.max_reconnects",
	"nats_reconnect_wait": "events.reconnect_wait",
	"events_buffer_size":  "events.buffer_size",
	"nats_close_timeout":  "events.close_timeout",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}
