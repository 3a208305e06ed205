// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/animebell/internal/client"
	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/models"
)

var errUsage = errors.New("usage: bell [list|follow|read <id>|read-all|delete <id>|clear]")

type app struct {
	cfg    *config.ClientConfig
	tokens client.TokenSource
	store  *client.Store
	dialer client.Dialer
	out    io.Writer
}

func newApp(cfg *config.ClientConfig, out io.Writer) *app {
	tokens := client.StaticToken(cfg.Token)
	api := client.NewAPIClient(cfg.APIURL, tokens, cfg.RequestTimeout)
	return &app{
		cfg:    cfg,
		tokens: tokens,
		store:  client.NewStore(api),
		dialer: client.NewWebSocketDialer(cfg.SocketURL),
		out:    out,
	}
}

func (a *app) Close() error {
	return a.store.Close()
}

// Run dispatches one subcommand. No arguments means list.
func (a *app) Run(ctx context.Context, args []string) error {
	cmd := "list"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "list":
		return a.list(ctx)
	case "follow":
		return a.follow(ctx)
	case "read-all":
		if err := a.store.MarkAllAsRead(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "all notifications marked read")
		return nil
	case "clear":
		if err := a.store.DeleteAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "all notifications deleted")
		return nil
	case "read", "delete":
		if len(args) != 1 || args[0] == "" {
			return errUsage
		}
		return a.mutateOne(ctx, cmd, args[0])
	default:
		return errUsage
	}
}

func (a *app) mutateOne(ctx context.Context, cmd, id string) error {
	if cmd == "read" {
		if err := a.store.MarkAsRead(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "marked %s read\n", id)
	} else {
		if err := a.store.DeleteOne(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %s\n", id)
	}
	if err := a.store.FetchUnreadCount(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d unread\n", a.store.Snapshot().UnreadCount)
	return nil
}

func (a *app) list(ctx context.Context) error {
	if err := a.fetch(ctx); err != nil {
		return err
	}
	printState(a.out, a.store.Snapshot())
	return nil
}

func (a *app) fetch(ctx context.Context) error {
	return errors.Join(
		a.store.FetchSnapshot(ctx, 1, a.cfg.PageSize),
		a.store.FetchUnreadCount(ctx),
	)
}

// follow prints the snapshot, then one line per pushed event until ctx ends
// or the controller gives up.
func (a *app) follow(ctx context.Context) error {
	if err := a.list(ctx); err != nil {
		return err
	}

	events := &printingHandler{store: a.store, out: a.out}
	ctrl := client.NewController(client.ControllerOptions{
		Tokens:           a.tokens,
		Dialer:           a.dialer,
		Events:           events,
		Resync:           client.ResyncHook(a.store, a.cfg.PageSize),
		InitialDelay:     a.cfg.ReconnectDelay,
		MaxDelay:         a.cfg.ReconnectDelayMax,
		MaxAttempts:      a.cfg.ReconnectAttempts,
		HandshakeTimeout: a.cfg.ConnectTimeout,
		OnStateChange: func(s client.ConnState) {
			fmt.Fprintf(a.out, "-- %s\n", s)
		},
	})
	defer ctrl.Close()

	err := ctrl.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// printingHandler applies frames to the store and echoes the ones it could
// decode.
type printingHandler struct {
	store *client.Store
	out   io.Writer
}

func (h *printingHandler) HandleEvent(raw []byte) error {
	if err := h.store.HandleEvent(raw); err != nil {
		return err
	}
	ev, err := models.DecodeEvent(raw)
	if err != nil {
		return nil
	}
	printEvent(h.out, ev, h.store.Snapshot().UnreadCount)
	return nil
}
