// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package main

import (
	"errors"
	"fmt"
	"os"
)

type tokenMinter interface {
	GenerateToken(userID, username string) (string, error)
}

// mintToken prints a signed token for args[0]. The username defaults to the
// user id.
func mintToken(m tokenMinter, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return errors.New("usage: server token <user-id> [username]")
	}
	username := args[0]
	if len(args) > 1 {
		username = args[1]
	}
	token, err := m.GenerateToken(args[0], username)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
