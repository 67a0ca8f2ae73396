// Package storage is the injected cache capability: recently used units,
// favorites, and named rack presets, persisted in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"
)

type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recents (
	unit_id      TEXT PRIMARY KEY,
	last_used_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS favorites (
	unit_id  TEXT PRIMARY KEY,
	added_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS presets (
	name       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Open initializes or connects to the cache database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("cache store opened", zap.String("path", path))
	return &Store{db: db, path: path, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddRecent records that a unit was just used. Re-adding bumps the
// timestamp.
func (s *Store) AddRecent(ctx context.Context, unitID string) error {
	if unitID == "" {
		return errors.New("unit id required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recents (unit_id, last_used_at) VALUES (?, ?)
		 ON CONFLICT(unit_id) DO UPDATE SET last_used_at = excluded.last_used_at`,
		unitID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add recent: %w", err)
	}
	return nil
}

// RecentUnits returns unit ids ordered most recent first.
func (s *Store) RecentUnits(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id FROM recents ORDER BY last_used_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recents: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// SetFavorite marks or unmarks a unit as favorite.
func (s *Store) SetFavorite(ctx context.Context, unitID string, favorite bool) error {
	if unitID == "" {
		return errors.New("unit id required")
	}
	var err error
	if favorite {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO favorites (unit_id, added_at) VALUES (?, ?)
			 ON CONFLICT(unit_id) DO NOTHING`,
			unitID, time.Now().UTC())
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM favorites WHERE unit_id = ?`, unitID)
	}
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return nil
}

func (s *Store) IsFavorite(ctx context.Context, unitID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE unit_id = ?`, unitID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query favorite: %w", err)
	}
	return true, nil
}

func (s *Store) Favorites(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id FROM favorites ORDER BY unit_id`)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
