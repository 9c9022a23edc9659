package jarstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"employee-portal/internal/database"
)

// SQLite stores jars in the cookie_jars table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	db, err := database.OpenAndMigrate(ctx, path, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return NewSQLite(db), nil
}

// NewSQLite wraps an already migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	var (
		data    string
		expires sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT entries, expires_at FROM cookie_jars WHERE store_key = ?`, key,
	).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %v", ErrUnavailable, key, err)
	}
	if expires.Valid && !expires.Time.After(s.now()) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return []byte(data), nil
}

func (s *SQLite) Save(ctx context.Context, key string, data []byte, expires time.Time) error {
	var exp sql.NullTime
	if !expires.IsZero() {
		exp = sql.NullTime{Time: expires.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookie_jars(store_key, entries, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(store_key) DO UPDATE SET
			entries = excluded.entries,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, string(data), exp, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: save %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookie_jars WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
