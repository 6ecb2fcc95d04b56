package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// DefaultLimit is the number of runs listed when no limit is given.
const DefaultLimit = 20

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates when needed) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.StorageError("failed to create history directory").
				WithCause(err).WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.StorageError("could not open history database").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.StorageError("failed to initialize history schema").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		files INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		split_count INTEGER NOT NULL DEFAULT 0,
		partition_index INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record adds a run to the store.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, status, files, duration_ms, split_count, partition_index, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.RunID, e.StartedAt.UnixMilli(), e.Status, e.Files, e.Duration.Milliseconds(), e.Split, e.Partition, e.Error,
	)
	if err != nil {
		return errors.StorageError("failed to record run").WithCause(err).WithContext("run_id", e.RunID).Build()
	}
	return nil
}

// Latest returns up to limit runs, newest first. A non-positive limit uses DefaultLimit.
func (s *SQLiteStore) Latest(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started_at, status, files, duration_ms, split_count, partition_index, error FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, errors.StorageError("failed to query runs").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e          Entry
			startedMS  int64
			durationMS int64
			errText    sql.NullString
		)
		if err := rows.Scan(&e.RunID, &startedMS, &e.Status, &e.Files, &durationMS, &e.Split, &e.Partition, &errText); err != nil {
			return nil, errors.StorageError("failed to scan run").WithCause(err).Build()
		}
		e.StartedAt = time.UnixMilli(startedMS)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("failed to iterate runs").WithCause(err).Build()
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
