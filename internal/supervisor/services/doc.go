// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package services adapts server components to suture.Service.
//
//   - HTTPServerService: binds the listener, serves, and drains on cancel.
//   - HubService: runs the websocket hub loop.
//
// eventbus.Relay already implements suture.Service and is added directly.
package services
