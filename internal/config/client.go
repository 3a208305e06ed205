// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/animebell/internal/validation"
)

// ClientConfig configures the notification client used by cmd/bell.
type ClientConfig struct {
	APIURL    string `koanf:"api_url" validate:"required,url"`
	SocketURL string `koanf:"socket_url" validate:"required,wsurl"`
	Token     string `koanf:"token"`

	PageSize       int           `koanf:"page_size" validate:"gte=1,lte=100"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	ReconnectDelay    time.Duration `koanf:"reconnect_delay" validate:"gt=0"`
	ReconnectDelayMax time.Duration `koanf:"reconnect_delay_max" validate:"gtefield=ReconnectDelay"`
	ReconnectAttempts int           `koanf:"reconnect_attempts" validate:"gte=1"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout" validate:"gt=0"`

	Logging LoggingConfig `koanf:"logging"`
}

func defaultClientConfig() *ClientConfig {
	return &ClientConfig{
		APIURL:            "http://localhost:5000/api",
		SocketURL:         "ws://localhost:5000/socket",
		PageSize:          50,
		RequestTimeout:    15 * time.Second,
		ReconnectDelay:    2 * time.Second,
		ReconnectDelayMax: 10 * time.Second,
		ReconnectAttempts: 10,
		ConnectTimeout:    45 * time.Second,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadClient builds a ClientConfig from defaults, file and BELL_* variables.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{}
	if err := load(defaultClientConfig(), clientEnvMappings, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate runs the struct tag rules.
func (c *ClientConfig) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	return nil
}

var clientEnvMappings = map[string]string{
	"bell_api_url":             "api_url",
	"bell_socket_url":          "socket_url",
	"bell_token":               "token",
	"bell_page_size":           "page_size",
	"bell_request_timeout":     "request_timeout",
	"bell_reconnect_delay":     "reconnect_delay",
	"bell_reconnect_delay_max": "reconnect_delay_max",
	"bell_reconnect_attempts":  "reconnect_attempts",
	"bell_connect_timeout":     "connect_timeout",
	"bell_log_level":           "logging.level",
	"bell_log_format":          "logging.format",
}
