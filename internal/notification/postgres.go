// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/models"
)

const postgresConnectTimeout = 10 * time.Second

const postgresSchema = `
CREATE TABLE IF NOT EXISTS notifications (
	seq           BIGSERIAL,
	id            TEXT PRIMARY KEY,
	type          TEXT NOT NULL,
	sender_id     TEXT,
	recipient_id  TEXT NOT NULL,
	message       TEXT NOT NULL,
	related_id    TEXT,
	sender_name   TEXT,
	sender_avatar TEXT,
	anime_title   TEXT,
	is_read       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created
	ON notifications (recipient_id, created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient_unread
	ON notifications (recipient_id) WHERE is_read = FALSE;
`

const notificationColumns = `id, type, sender_id, recipient_id, message, related_id,
	sender_name, sender_avatar, anime_title, is_read, created_at`

// PostgresStore keeps notifications in PostgreSQL via lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, sizes the pool and creates the schema.
func NewPostgresStore(ctx context.Context, cfg *config.StoreConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: database url is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s, err := newPostgresStoreFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logging.Info().Int("max_open_conns", cfg.MaxOpenConns).Msg("postgres notification store ready")
	return s, nil
}

func newPostgresStoreFromDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, postgresConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("postgres store: create schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var typ string
	err := row.Scan(
		&n.ID,
		&typ,
		&n.SenderID,
		&n.RecipientID,
		&n.Message,
		&n.RelatedID,
		&n.SenderName,
		&n.SenderAvatar,
		&n.AnimeTitle,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) (err error) {
	defer func(start time.Time) { observe(BackendPostgres, "create", start, err) }(time.Now())

	query := `
		INSERT INTO notifications (id, type, sender_id, recipient_id, message, related_id,
			sender_name, sender_avatar, anime_title, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.db.ExecContext(ctx, query,
		n.ID, string(n.Type), n.SenderID, n.RecipientID, n.Message, n.RelatedID,
		n.SenderName, n.SenderAvatar, n.AnimeTitle, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (n *models.Notification, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "get", start, err) }(time.Now())

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err = scanNotification(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) List(ctx context.Context, recipient string, limit, offset int) (out []*models.Notification, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "list", start, err) }(time.Now())

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, recipient, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out = make([]*models.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UnreadCount(ctx context.Context, recipient string) (count int, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "unread_count", start, err) }(time.Now())

	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`
	if err = s.db.QueryRowContext(ctx, query, recipient).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id string) (changed bool, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "mark_read", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND is_read = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// Nothing changed: either already read or gone.
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, recipient string) (updated int64, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "mark_all_read", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipient)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe(BackendPostgres, "delete", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, recipient string) (ids []string, err error) {
	defer func(start time.Time) { observe(BackendPostgres, "delete_all", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `DELETE FROM notifications WHERE recipient_id = $1 RETURNING id`, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to delete notifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
