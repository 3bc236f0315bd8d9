package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JoeyEinTX/aquamind/internal/state"
)

// SQLiteStore implements Store using SQLite. The cap is enforced on every
// append by deleting rows that fall outside the newest maxEntries.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
	mu         sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed run log.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string, maxEntries int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db, maxEntries: maxEntries}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		zone_id INTEGER NOT NULL,
		zone_name TEXT NOT NULL,
		source TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		stopped_at INTEGER NOT NULL,
		duration_sec INTEGER NOT NULL,
		success INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_zone_id ON runs(zone_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts a run entry and prunes everything past the cap.
func (s *SQLiteStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	success := 0
	if entry.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, zone_id, zone_name, source, started_at, stopped_at, duration_sec, success) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.ZoneID, entry.ZoneName, string(entry.Source),
		entry.StartedAt.Unix(), entry.StoppedAt.Unix(), entry.DurationSec, success,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	// Rotation only ever drops from the tail (oldest inserts).
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE seq NOT IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)",
		s.maxEntries,
	)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	return nil
}

// List returns entries newest-first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.maxEntries {
		limit = s.maxEntries
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, zone_id, zone_name, source, started_at, stopped_at, duration_sec, success FROM runs ORDER BY seq DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var source string
		var startedUnix, stoppedUnix int64
		var success int

		if err := rows.Scan(&e.ID, &e.ZoneID, &e.ZoneName, &source, &startedUnix, &stoppedUnix, &e.DurationSec, &success); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		e.Source = state.RunSource(source)
		e.StartedAt = time.Unix(startedUnix, 0)
		e.StoppedAt = time.Unix(stoppedUnix, 0)
		e.Success = success == 1
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
