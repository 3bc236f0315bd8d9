package relay

import (
	"context"
	"sync"
)

// Simulated is the development/testing driver: an in-memory boolean map
// that always succeeds.
type Simulated struct {
	mu sync.Mutex
	on map[int]bool
}

// NewSimulated creates a simulated relay driver.
func NewSimulated() *Simulated {
	return &Simulated{on: make(map[int]bool)}
}

func (s *Simulated) Activate(_ context.Context, zoneID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on[zoneID] = true
	return nil
}

func (s *Simulated) Deactivate(_ context.Context, zoneID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on[zoneID] = false
	return nil
}

func (s *Simulated) IsActive(zoneID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on[zoneID]
}

func (s *Simulated) Name() string { return "simulated" }
