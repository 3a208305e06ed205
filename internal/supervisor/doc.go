// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

/*
Package supervisor runs the long-lived parts of the server under suture v4.

	RootSupervisor ("animebell")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService            (websocket.Hub fan-out loop)
	│   └── eventbus.Relay        (only when events.backend != none)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService     (REST, /socket, /health, /metrics)

A relay that loses its subscription is restarted without touching open
sockets, and a crashed HTTP listener does not drop the hub's rooms.

Supervisor events are logged through sutureslog, backed by the zerolog
global logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLoggerFor("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
