// Package runlog provides the durable, bounded history of completed
// watering runs. Entries are immutable once written; the collection is
// newest-first and capped, dropping only from the tail.
package runlog

import (
	"time"

	"github.com/JoeyEinTX/aquamind/internal/state"
)

// Entry records one completed (or aborted) zone run. DurationSec always
// reflects the wall-clock delta between StartedAt and StoppedAt, not the
// requested duration, so the log reflects reality on early stops too.
type Entry struct {
	ID          string          `json:"id"`
	ZoneID      int             `json:"zone_id"`
	ZoneName    string          `json:"zone_name"`
	Source      state.RunSource `json:"source"`
	StartedAt   time.Time       `json:"started_at"`
	StoppedAt   time.Time       `json:"stopped_at"`
	DurationSec int             `json:"duration_sec"`
	Success     bool            `json:"success"`
}
