// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MinJWTSecretLength applies outside development.
const MinJWTSecretLength = 32

// Validate checks required settings and cross-field constraints.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateAPI()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, production or test, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.IsDevelopment() && len(c.Security.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS origin %q is not an absolute URL", origin)
		}
	}
	return nil
}

func (c *Config) validateGateway() error {
	g := c.Gateway
	if !strings.HasPrefix(g.Path, "/") {
		return fmt.Errorf("WS_PATH must start with /")
	}
	if g.WriteWait <= 0 || g.PongWait <= 0 || g.PingPeriod <= 0 {
		return fmt.Errorf("websocket write wait, ping timeout and ping interval must be positive")
	}
	// A ping must go out before the peer's read deadline expires.
	if g.PingPeriod >= g.PongWait {
		return fmt.Errorf("WS_PING_INTERVAL (%s) must be less than WS_PING_TIMEOUT (%s)", g.PingPeriod, g.PongWait)
	}
	if g.SendBuffer < 1 || g.EventBuffer < 1 {
		return fmt.Errorf("websocket buffers must be positive")
	}
	if g.MaxMessageSize < 1 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case "badger":
		if c.Store.BadgerPath == "" && !c.Store.BadgerInMemory {
			return fmt.Errorf("BADGER_PATH is required when STORE_BACKEND=badger")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, postgres or badger, got %q", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "none", "memory":
	case "nats":
		if c.Events.NATSURL == "" && !c.Events.Embedded {
			return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be none, memory or nats, got %q", c.Events.Backend)
	}
	if c.Events.Backend != "none" && c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API page sizes must satisfy 1 <= default (%d) <= max (%d)",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	return nil
}
