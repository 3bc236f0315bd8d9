// Package events publishes engine lifecycle events for external
// consumers (dashboards, alerting). Publishing is best-effort; engine
// behavior never depends on a delivered event.
package events

import (
	"time"

	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// Event types carried in the envelope Type field.
const (
	TypeRunCompleted     = "run_completed"
	TypeRainDelayChanged = "rain_delay_changed"
)

// Envelope wraps every published event.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Run       *runlog.Entry    `json:"run,omitempty"`
	RainDelay *state.RainDelay `json:"rain_delay,omitempty"`
}

// Publisher emits engine events. Implementations must be safe for
// concurrent use and must never block the caller for long.
type Publisher interface {
	PublishRunCompleted(entry runlog.Entry)
	PublishRainDelayChanged(delay state.RainDelay)
	Close()
}

// NoopPublisher drops all events (default when no broker is configured).
type NoopPublisher struct{}

func (NoopPublisher) PublishRunCompleted(runlog.Entry)        {}
func (NoopPublisher) PublishRainDelayChanged(state.RainDelay) {}
func (NoopPublisher) Close()                                  {}
