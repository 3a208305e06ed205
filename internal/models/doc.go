// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package models holds the types shared by the server, the event bus and
// the client: the Notification record, REST bodies and the three gateway
// events with their wire frame.
package models
