// Package archive persists extracted threads to SQLite for offline
// analysis. It sits behind the NATS feed of results; the extraction engine
// itself never touches storage.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/threadscope/threadscope/engine/thread"
)

const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	code        TEXT NOT NULL,
	username    TEXT NOT NULL,
	reply_count INTEGER NOT NULL,
	data        TEXT NOT NULL,
	archived_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threads_code ON threads (code);
CREATE INDEX IF NOT EXISTS idx_threads_archived_at ON threads (archived_at);`

// ErrNotArchived is returned when no snapshot exists for a post code.
var ErrNotArchived = errors.New("no archived thread for code")

// Store is a SQLite-backed archive of extracted threads.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the archive at path. The caller
// should Close the store when done.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save appends one thread snapshot.
func (s *Store) Save(ctx context.Context, result thread.ThreadResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO threads (code, username, reply_count, data, archived_at)
		 VALUES (?, ?, ?, ?, ?)`,
		result.Thread.Code,
		result.Thread.Username,
		len(result.Replies),
		string(data),
		time.Now().UnixMilli(),
	)
	return err
}

// Latest returns the most recent snapshot for a post code, or ErrNotArchived.
func (s *Store) Latest(ctx context.Context, postCode string) (thread.ThreadResult, error) {
	var zero thread.ThreadResult
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM threads WHERE code = ? ORDER BY archived_at DESC LIMIT 1`,
		postCode,
	)
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotArchived
		}
		return zero, err
	}
	var result thread.ThreadResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return zero, err
	}
	return result, nil
}

// Count returns the number of archived snapshots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads`).Scan(&n)
	return n, err
}

// Prune deletes snapshots older than maxAge, returning how many were
// removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE archived_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
