// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/animebell/internal/client"
	"github.com/tomtom215/animebell/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func printState(w io.Writer, s client.State) {
	fmt.Fprintf(w, "%d unread\n", s.UnreadCount)
	if len(s.Notifications) == 0 {
		fmt.Fprintln(w, "no notifications")
		return
	}
	for _, n := range s.Notifications {
		fmt.Fprintln(w, formatNotification(n))
	}
}

// formatNotification renders "* id  [type] message (anime)  sender  time".
// Unread rows start with "*".
func formatNotification(n *models.Notification) string {
	var b strings.Builder
	if n.IsRead {
		b.WriteString("  ")
	} else {
		b.WriteString("* ")
	}
	fmt.Fprintf(&b, "%s  [%s] %s", n.ID, n.Type, n.Message)
	if n.AnimeTitle != nil && *n.AnimeTitle != "" {
		fmt.Fprintf(&b, " (%s)", *n.AnimeTitle)
	}
	if n.SenderName != nil && *n.SenderName != "" {
		fmt.Fprintf(&b, "  from %s", *n.SenderName)
	}
	if !n.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "  %s", n.CreatedAt.In(time.Local).Format(timeLayout))
	}
	return b.String()
}

func printEvent(w io.Writer, ev models.Event, unread int) {
	switch e := ev.(type) {
	case models.NewNotificationEvent:
		fmt.Fprintln(w, "new:", formatNotification(e.Notification))
	case models.UnreadCountEvent:
		fmt.Fprintf(w, "%d unread\n", unread)
	case models.NotificationDeletedEvent:
		fmt.Fprintf(w, "removed: %s\n", e.NotificationID)
	}
}
