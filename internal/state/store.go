package state

// Store abstracts snapshot persistence so the engine logic can target a
// file today and an embedded KV store or database later without change.
// Semantics are deliberately whole-document: Save rewrites everything.
type Store interface {
	// Load returns the persisted snapshot, or nil if none exists yet.
	Load() (*Snapshot, error)

	// Save persists the full snapshot.
	Save(snapshot *Snapshot) error
}
