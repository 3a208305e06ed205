// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Command bell is a terminal notification client.
//
//	bell [flags] [list]        print the unread count and page 1
//	bell [flags] follow        print page 1, then stream live events
//	bell [flags] read <id>     mark one notification read
//	bell [flags] read-all      mark every notification read
//	bell [flags] delete <id>   delete one notification
//	bell [flags] clear         delete every notification
//
// Settings come from BELL_* variables (BELL_API_URL, BELL_SOCKET_URL,
// BELL_TOKEN, ...), a config file or .env; flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/logging"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fs := flag.NewFlagSet("bell", flag.ContinueOnError)
	fs.StringVar(&cfg.Token, "token", cfg.Token, "bearer token (BELL_TOKEN)")
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "REST base URL (BELL_API_URL)")
	fs.StringVar(&cfg.SocketURL, "socket-url", cfg.SocketURL, "socket URL (BELL_SOCKET_URL)")
	fs.IntVar(&cfg.PageSize, "limit", cfg.PageSize, "notifications to fetch")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, os.Stdout)
	defer a.Close()

	if err := a.Run(ctx, fs.Args()); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "bell:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
