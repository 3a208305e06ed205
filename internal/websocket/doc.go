// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

/*
Package websocket is the notification gateway.

A Hub keeps one room per user id. Every authenticated connection joins the
room of the user named in its token; a user with three open tabs has three
Clients in one room. Events addressed to a user are copied to every Client in
that room and silently dropped when the room is empty. Nothing is queued for
offline users: clients repair missed events by refetching over REST when they
reconnect.

# Handshake

Handler authenticates before upgrading. The credential is the "token" query
parameter or an "Authorization: Bearer" header. A rejected handshake gets a
401 JSON body with the reason and never becomes a Client:

	{"error":{"code":"UNAUTHORIZED","message":"Authentication error: Invalid token"}}

# Frames

Server to client only. Each text frame is one event:

	{"event":"newNotification","data":{...notification...}}
	{"event":"unreadCountUpdate","data":{"count":3}}
	{"event":"notificationDeleted","data":{"notificationId":"42"}}

Inbound data frames are read and discarded so control frames (pong, close)
keep flowing; a peer that floods the socket is disconnected.

# Lifecycle

RunWithContext is the fan-out loop and is meant to run under suture. When its
context ends every Client is closed. Register and Unregister take the hub
lock directly, so membership changes for one user are atomic even when two
tabs connect and disconnect at the same time. Unregister is idempotent.

A Client whose send buffer is full is evicted instead of blocking the fan-out
for everyone else.
*/
package websocket
