package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stateFileName = "engine-state.json"

// JSONStore implements Store using a single JSON file rewritten in full on
// every save. Writes go through a temporary file and os.Rename so a crash
// mid-write never leaves a truncated document.
type JSONStore struct {
	dataDir string
	mu      sync.RWMutex
}

// NewJSONStore creates a JSON-based snapshot store rooted at dataDir.
func NewJSONStore(dataDir string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &JSONStore{dataDir: dataDir}, nil
}

// Load reads the persisted snapshot. A missing file is not an error; it
// returns nil so the caller can build a fresh snapshot from configuration.
func (js *JSONStore) Load() (*Snapshot, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	statePath := filepath.Join(js.dataDir, stateFileName)

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &snapshot, nil
}

// Save persists the full snapshot atomically.
func (js *JSONStore) Save(snapshot *Snapshot) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	snapshot.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	statePath := filepath.Join(js.dataDir, stateFileName)
	tempPath := statePath + ".tmp"

	// Atomic write using temporary file
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := os.Rename(tempPath, statePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
