// Package relay abstracts the zone relay hardware behind a small Driver
// interface with three interchangeable implementations: simulated (in
// memory), gpio (Raspberry Pi output pins via gobot), and remote (an
// external HTTP relay controller).
package relay

import "context"

// Driver switches zone relays on and off. Callers must serialize calls
// per zone; the engine guarantees this by never starting a zone that is
// already active.
type Driver interface {
	// Activate energizes the relay for a zone.
	Activate(ctx context.Context, zoneID int) error

	// Deactivate de-energizes the relay for a zone.
	Deactivate(ctx context.Context, zoneID int) error

	// IsActive reports the driver's view of a zone. This is best-effort
	// local tracking; only the simulated variant is authoritative.
	IsActive(zoneID int) bool

	// Name identifies the variant for logging and status reporting.
	Name() string
}
