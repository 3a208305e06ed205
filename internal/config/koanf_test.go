// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// isolate keeps tests away from config files and .env in the package dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Gateway.PingPeriod != 60*time.Second {
		t.Errorf("Gateway.PingPeriod = %v, want 60s", cfg.Gateway.PingPeriod)
	}
	if cfg.Gateway.PongWait != 120*time.Second {
		t.Errorf("Gateway.PongWait = %v, want 120s", cfg.Gateway.PongWait)
	}
	if cfg.Gateway.HandshakeTimeout != 45*time.Second {
		t.Errorf("Gateway.HandshakeTimeout = %v, want 45s", cfg.Gateway.HandshakeTimeout)
	}
	if cfg.Store.Backend != "memory" || cfg.Events.Backend != "none" {
		t.Errorf("unexpected backends: store=%q events=%q", cfg.Store.Backend, cfg.Events.Backend)
	}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, []string{"http://localhost:5173"}) {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_Env(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WS_PING_INTERVAL", "20s")
	t.Setenv("WS_PING_TIMEOUT", "40s")
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("BADGER_IN_MEMORY", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Gateway.PingPeriod != 20*time.Second || cfg.Gateway.PongWait != 40*time.Second {
		t.Errorf("gateway timings = %v/%v", cfg.Gateway.PingPeriod, cfg.Gateway.PongWait)
	}
	if cfg.Store.Backend != "badger" || !cfg.Store.BadgerInMemory {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "animebell.yaml")
	yaml := `
server:
  port: 7000
security:
  jwt_secret: ` + testSecret + `
events:
  backend: memory
  topic: custom.topic
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file: port = %d", cfg.Server.Port)
	}
	if cfg.Events.Backend != "memory" || cfg.Events.Topic != "custom.topic" {
		t.Errorf("events = %+v", cfg.Events)
	}
}

func TestLoadWithKoanf_DotEnv(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	if err := os.WriteFile(".env", []byte("JWT_SECRET="+testSecret+"\nEVENTS_BACKEND=memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("EVENTS_BACKEND")
	})

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Security.JWTSecret != testSecret {
		t.Error("JWT secret should come from .env")
	}
	if cfg.Events.Backend != "memory" {
		t.Errorf("Events.Backend = %q", cfg.Events.Backend)
	}
}

func TestLoadWithKoanf_MissingSecret(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoadClient(t *testing.T) {
	isolate(t)
	t.Setenv("BELL_TOKEN", "abc")
	t.Setenv("BELL_SOCKET_URL", "wss://bell.example/socket")
	t.Setenv("BELL_RECONNECT_ATTEMPTS", "3")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.Token != "abc" || cfg.SocketURL != "wss://bell.example/socket" || cfg.ReconnectAttempts != 3 {
		t.Errorf("unexpected client config: %+v", cfg)
	}
	if cfg.PageSize != 50 || cfg.ReconnectDelay != 2*time.Second || cfg.ReconnectDelayMax != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadClient_BadSocketURL(t *testing.T) {
	isolate(t)
	t.Setenv("BELL_SOCKET_URL", "http://bell.example/socket")

	if _, err := LoadClient(); err == nil || !strings.Contains(err.Error(), "socket_url") {
		t.Fatalf("expected socket_url error, got %v", err)
	}
}
