package state

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/errors"
)

// Zone represents one physical irrigation circuit. Zones come from
// configuration and are never created or deleted at runtime; only the
// engine mutates IsActive and EndTime.
type Zone struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	IsActive bool       `json:"is_active"`
	EndTime  *time.Time `json:"end_time,omitempty"`
}

// RainDelay is a global, time-boxed suppression of zone starts. It
// auto-clears once ExpiresAt has passed.
type RainDelay struct {
	Active         bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	HoursRemaining float64    `json:"hours_remaining"`
}

// RunSource is the provenance of a watering run.
type RunSource string

const (
	SourceManual   RunSource = "manual"
	SourceSchedule RunSource = "schedule"
)

// Schedule is a recurring watering rule: time of day, days of week, duration.
type Schedule struct {
	ID          string     `json:"id"`
	ZoneID      int        `json:"zone_id"`
	StartTime   string     `json:"start_time"` // HH:MM, 24-hour
	DaysOfWeek  []int      `json:"days_of_week"`
	DurationSec int        `json:"duration_sec"`
	Enabled     bool       `json:"enabled"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ParseStartTime parses an HH:MM string into hour and minute components.
func ParseStartTime(raw string) (hour, minute int, err error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("start time %q is not HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("start time %q has invalid hour", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("start time %q has invalid minute", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("start time %q out of range", raw)
	}
	return hour, minute, nil
}

// Validate checks a schedule for structural errors. Overlap with other
// schedules is intentionally not checked; conflicts resolve at trigger
// time through the single-active-zone rule.
func (s *Schedule) Validate() error {
	if s.ZoneID <= 0 {
		return errors.ValidationFailed("zone_id", "must be positive")
	}
	if _, _, err := ParseStartTime(s.StartTime); err != nil {
		return errors.ValidationFailed("start_time", err.Error())
	}
	if len(s.DaysOfWeek) == 0 {
		return errors.ValidationFailed("days_of_week", "at least one day required")
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return errors.ValidationFailed("days_of_week", fmt.Sprintf("day %d out of range 0-6", d))
		}
	}
	if s.DurationSec <= 0 {
		return errors.ValidationFailed("duration_sec", "must be positive")
	}
	return nil
}

// MatchesMinute reports whether this schedule should fire at the given
// wall-clock instant (same HH:MM and a configured weekday). Sunday is 0.
func (s *Schedule) MatchesMinute(now time.Time) bool {
	hour, minute, err := ParseStartTime(s.StartTime)
	if err != nil {
		return false
	}
	if now.Hour() != hour || now.Minute() != minute {
		return false
	}
	today := int(now.Weekday())
	for _, d := range s.DaysOfWeek {
		if d == today {
			return true
		}
	}
	return false
}

// Snapshot is the full persisted engine state, rewritten as one document
// on every mutation.
type Snapshot struct {
	ActiveZoneID   *int       `json:"active_zone_id"`
	ActiveZoneName string     `json:"active_zone_name,omitempty"`
	DurationSec    int        `json:"duration_sec"`
	RainDelay      RainDelay  `json:"rain_delay"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	Schedules      []Schedule `json:"schedules"`
	Zones          []Zone     `json:"zones"`
	UpdatedAt      time.Time  `json:"last_update"`
}
