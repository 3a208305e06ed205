// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package websocket

import (
	"time"

	"github.com/tomtom215/animebell/internal/config"
)

// Options are the per-connection limits and hub buffer sizes.
type Options struct {
	WriteWait        time.Duration
	PongWait         time.Duration
	PingPeriod       time.Duration
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
	SendBuffer       int
	EventBuffer      int
	InboundRate      float64
	InboundBurst     int
}

// DefaultOptions: ping every 60s, drop after 120s of silence.
func DefaultOptions() Options {
	return Options{
		WriteWait:        10 * time.Second,
		PongWait:         120 * time.Second,
		PingPeriod:       60 * time.Second,
		HandshakeTimeout: 45 * time.Second,
		MaxMessageSize:   4096,
		SendBuffer:       256,
		EventBuffer:      1024,
		InboundRate:      5,
		InboundBurst:     20,
	}
}

// OptionsFromConfig copies gateway settings, keeping defaults for zero values.
func OptionsFromConfig(cfg *config.GatewayConfig) Options {
	o := DefaultOptions()
	if cfg == nil {
		return o
	}
	setDuration(&o.WriteWait, cfg.WriteWait)
	setDuration(&o.PongWait, cfg.PongWait)
	setDuration(&o.PingPeriod, cfg.PingPeriod)
	setDuration(&o.HandshakeTimeout, cfg.HandshakeTimeout)
	if cfg.MaxMessageSize > 0 {
		o.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.SendBuffer > 0 {
		o.SendBuffer = cfg.SendBuffer
	}
	if cfg.EventBuffer > 0 {
		o.EventBuffer = cfg.EventBuffer
	}
	if cfg.InboundRate > 0 {
		o.InboundRate = cfg.InboundRate
	}
	if cfg.InboundBurst > 0 {
		o.InboundBurst = cfg.InboundBurst
	}
	return o
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
