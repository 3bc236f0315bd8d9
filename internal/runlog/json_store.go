package runlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const logFileName = "run-log.json"

// JSONStore implements Store as a single JSON document holding the entry
// array, rewritten in full on every append. This matches the snapshot
// store's whole-document persistence semantics.
type JSONStore struct {
	path       string
	maxEntries int
	mu         sync.RWMutex
	entries    []Entry
}

// NewJSONStore creates a JSON-backed run log rooted at dataDir, loading
// any existing history.
func NewJSONStore(dataDir string, maxEntries int) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	store := &JSONStore{
		path:       filepath.Join(dataDir, logFileName),
		maxEntries: maxEntries,
	}

	data, err := os.ReadFile(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	if err := json.Unmarshal(data, &store.entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run log: %w", err)
	}
	if len(store.entries) > maxEntries {
		store.entries = store.entries[:maxEntries]
	}

	return store, nil
}

// Append inserts at the front and truncates to the cap.
func (js *JSONStore) Append(_ context.Context, entry Entry) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	js.entries = append([]Entry{entry}, js.entries...)
	if len(js.entries) > js.maxEntries {
		js.entries = js.entries[:js.maxEntries]
	}

	return js.persistUnsafe()
}

// List returns entries newest-first.
func (js *JSONStore) List(_ context.Context, limit int) ([]Entry, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	n := len(js.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	copy(out, js.entries[:n])
	return out, nil
}

// Close flushes nothing; the document is rewritten on every append.
func (js *JSONStore) Close() error { return nil }

func (js *JSONStore) persistUnsafe() error {
	data, err := json.MarshalIndent(js.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	tempPath := js.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary run log: %w", err)
	}
	if err := os.Rename(tempPath, js.path); err != nil {
		return fmt.Errorf("failed to replace run log: %w", err)
	}
	return nil
}
