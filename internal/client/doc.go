// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

/*
Package client keeps a local copy of one user's notifications in step with
the server.

Three pieces cooperate:

  - APIClient talks to the REST endpoints through a circuit breaker.
  - Store holds the cached list and unread count. It takes REST snapshots
    and applies pushed deltas, and it only changes local state after the
    server confirmed a mutation.
  - Controller owns the socket. It walks Disconnected, Connecting,
    Authenticating and Connected, resyncs the Store on every connect and
    retries with capped exponential backoff.

Pushes are best effort. Anything missed while offline comes back through the
snapshot that follows each reconnect.

Usage:

	tokens := client.StaticToken(os.Getenv("BELL_TOKEN"))
	api := client.NewAPIClient(cfg.APIURL, tokens, cfg.RequestTimeout)
	store := client.NewStore(api)
	ctrl := client.NewController(client.ControllerOptions{
	    Tokens: tokens,
	    Dialer: client.NewWebSocketDialer(cfg.SocketURL),
	    Events: store,
	    Resync: client.ResyncHook(store, cfg.PageSize),
	})
	go ctrl.Run(ctx)
*/
package client
