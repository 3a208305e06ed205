// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package notification

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/models"
)

// Key layout:
//
//	notif:<id>                                -> JSON notification
//	notif_user:<hex recipient>:<rev-ts>:<id>  -> id
//
// The recipient is hex encoded so an id containing ':' cannot prefix-match
// another user's index. rev-ts is MaxInt64 minus CreatedAt in nanoseconds,
// zero padded, so a prefix scan over notif_user:<hex recipient>: yields
// newest first.
const (
	notificationKeyPrefix     = "notif:"
	notificationUserKeyPrefix = "notif_user:"
)

// BadgerStore keeps notifications in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at cfg.BadgerPath.
func NewBadgerStore(cfg *config.StoreConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.BadgerPath).WithLogger(nil)
	if cfg.BadgerInMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open: %w", err)
	}
	logging.Info().
		Str("path", cfg.BadgerPath).
		Bool("in_memory", cfg.BadgerInMemory).
		Msg("badger notification store ready")
	return &BadgerStore{db: db}, nil
}

func notificationKey(id string) []byte {
	return []byte(notificationKeyPrefix + id)
}

func userPrefix(recipient string) []byte {
	return []byte(notificationUserKeyPrefix + hex.EncodeToString([]byte(recipient)) + ":")
}

func userKey(n *models.Notification) []byte {
	rev := math.MaxInt64 - n.CreatedAt.UnixNano()
	return []byte(fmt.Sprintf("%s%019d:%s", userPrefix(n.RecipientID), rev, n.ID))
}

func getNotification(txn *badger.Txn, id string) (*models.Notification, error) {
	item, err := txn.Get(notificationKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	var n models.Notification
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &n)
	}); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

func putNotification(txn *badger.Txn, n *models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return txn.Set(notificationKey(n.ID), data)
}

// recipientIDs walks the user index newest first. fn returning false stops.
func recipientIDs(txn *badger.Txn, recipient string, fn func(id string) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := userPrefix(recipient)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var id string
		if err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		if !fn(id) {
			return nil
		}
	}
	return nil
}

func (s *BadgerStore) Create(_ context.Context, n *models.Notification) (err error) {
	defer func(start time.Time) { observe(BackendBadger, "create", start, err) }(time.Now())

	return s.db.Update(func(txn *badger.Txn) error {
		if err := putNotification(txn, n); err != nil {
			return err
		}
		if err := txn.Set(userKey(n), []byte(n.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Get(_ context.Context, id string) (n *models.Notification, err error) {
	defer func(start time.Time) { observe(BackendBadger, "get", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = getNotification(txn, id)
		return err
	})
	return n, err
}

func (s *BadgerStore) List(_ context.Context, recipient string, limit, offset int) (out []*models.Notification, err error) {
	defer func(start time.Time) { observe(BackendBadger, "list", start, err) }(time.Now())

	out = make([]*models.Notification, 0, limit)
	err = s.db.View(func(txn *badger.Txn) error {
		var (
			skipped int
			getErr  error
		)
		walkErr := recipientIDs(txn, recipient, func(id string) bool {
			if skipped < offset {
				skipped++
				return true
			}
			n, err := getNotification(txn, id)
			if errors.Is(err, ErrNotFound) {
				// Dangling index entry; ignore it.
				return true
			}
			if err != nil {
				getErr = err
				return false
			}
			out = append(out, n)
			return len(out) < limit
		})
		if walkErr != nil {
			return walkErr
		}
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) UnreadCount(_ context.Context, recipient string) (count int, err error) {
	defer func(start time.Time) { observe(BackendBadger, "unread_count", start, err) }(time.Now())

	err = s.db.View(func(txn *badger.Txn) error {
		var getErr error
		walkErr := recipientIDs(txn, recipient, func(id string) bool {
			n, err := getNotification(txn, id)
			if errors.Is(err, ErrNotFound) {
				return true
			}
			if err != nil {
				getErr = err
				return false
			}
			if !n.IsRead {
				count++
			}
			return true
		})
		if walkErr != nil {
			return walkErr
		}
		return getErr
	})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *BadgerStore) MarkRead(_ context.Context, id string) (changed bool, err error) {
	defer func(start time.Time) { observe(BackendBadger, "mark_read", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		n, err := getNotification(txn, id)
		if err != nil {
			return err
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		changed = true
		return putNotification(txn, n)
	})
	return changed, err
}

func (s *BadgerStore) MarkAllRead(_ context.Context, recipient string) (updated int64, err error) {
	defer func(start time.Time) { observe(BackendBadger, "mark_all_read", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		var ids []string
		if err := recipientIDs(txn, recipient, func(id string) bool {
			ids = append(ids, id)
			return true
		}); err != nil {
			return err
		}
		for _, id := range ids {
			n, err := getNotification(txn, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if n.IsRead {
				continue
			}
			n.IsRead = true
			if err := putNotification(txn, n); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return updated, nil
}

func (s *BadgerStore) Delete(_ context.Context, id string) (err error) {
	defer func(start time.Time) { observe(BackendBadger, "delete", start, err) }(time.Now())

	return s.db.Update(func(txn *badger.Txn) error {
		n, err := getNotification(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(notificationKey(id)); err != nil {
			return fmt.Errorf("delete notification: %w", err)
		}
		if err := txn.Delete(userKey(n)); err != nil {
			return fmt.Errorf("delete user index: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) DeleteAll(_ context.Context, recipient string) (ids []string, err error) {
	defer func(start time.Time) { observe(BackendBadger, "delete_all", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		var found []string
		if err := recipientIDs(txn, recipient, func(id string) bool {
			found = append(found, id)
			return true
		}); err != nil {
			return err
		}
		for _, id := range found {
			n, err := getNotification(txn, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := txn.Delete(notificationKey(id)); err != nil {
				return fmt.Errorf("delete notification: %w", err)
			}
			if err := txn.Delete(userKey(n)); err != nil {
				return fmt.Errorf("delete user index: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return ErrStoreClosed
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
