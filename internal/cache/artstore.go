package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ArtStore persists fetched album-art bytes in SQLite, keyed by URL.
// Art changes essentially never, so entries live for days and are
// pruned lazily.
type ArtStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenArtStore opens (and if needed creates) the art database at path.
func OpenArtStore(path string, ttl time.Duration) (*ArtStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open art store: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS art (
			url TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_art_fetched_at ON art(fetched_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ArtStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *ArtStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached bytes for url, or nil if absent or expired.
// Expired rows are deleted on access.
func (s *ArtStore) Get(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	var fetchedAt int64

	err := s.db.QueryRowContext(ctx, "SELECT data, fetched_at FROM art WHERE url = ?", url).
		Scan(&data, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query art: %w", err)
	}

	if s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM art WHERE url = ?", url)
		return nil, nil
	}
	return data, nil
}

// Put stores bytes for url, replacing any previous entry.
func (s *ArtStore) Put(ctx context.Context, url string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO art (url, data, fetched_at) VALUES (?, ?, ?)",
		url, data, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store art: %w", err)
	}
	return nil
}

// Prune removes all expired rows and returns how many were deleted.
func (s *ArtStore) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).Unix()

	result, err := s.db.ExecContext(ctx, "DELETE FROM art WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune art store: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
