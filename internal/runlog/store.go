package runlog

import "context"

// Store defines the interface for persisting and retrieving run entries.
// Implementations enforce the newest-first ordering and the entry cap.
type Store interface {
	// Append inserts an entry at the front of the history and drops the
	// oldest entries past the configured cap.
	Append(ctx context.Context, entry Entry) error

	// List returns entries newest-first. A non-positive limit returns all.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Close closes the store and releases resources.
	Close() error
}
