package runlog

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the engine-facing run history API. It assigns entry ids and
// delegates ordering and rotation to the underlying Store.
type Logger struct {
	store Store
}

// NewLogger wraps a Store.
func NewLogger(store Store) *Logger {
	return &Logger{store: store}
}

// Add assigns a unique id (when absent) and appends the entry.
// The stored entry is returned; it is never mutated afterwards.
func (l *Logger) Add(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := l.store.Append(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Entries returns the newest-first history, optionally capped at limit.
func (l *Logger) Entries(ctx context.Context, limit int) ([]Entry, error) {
	return l.store.List(ctx, limit)
}

// RecentRuns is a convenience alias for small limits.
func (l *Logger) RecentRuns(ctx context.Context, n int) ([]Entry, error) {
	return l.store.List(ctx, n)
}

// Close releases the underlying store.
func (l *Logger) Close() error {
	return l.store.Close()
}
