// Package responses defines API response types used by the HTTP handlers.
package responses

import (
	"time"

	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// StatusResponse is the engine status API response.
type StatusResponse struct {
	ActiveZoneID     *int            `json:"active_zone_id"`
	ActiveZoneName   string          `json:"active_zone_name,omitempty"`
	TimeRemainingSec int             `json:"time_remaining_sec"`
	RainDelay        state.RainDelay `json:"rain_delay"`
	LastRun          *time.Time      `json:"last_run,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// ZoneActionResponse acknowledges a zone start or stop.
type ZoneActionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ZoneID   int    `json:"zone_id"`
	ZoneName string `json:"zone_name,omitempty"`
}

// ZonesResponse lists the configured zones with their live state.
type ZonesResponse struct {
	Zones     []state.Zone `json:"zones"`
	Timestamp time.Time    `json:"timestamp"`
}

// SchedulesResponse lists all schedules.
type SchedulesResponse struct {
	Schedules []state.Schedule `json:"schedules"`
	Timestamp time.Time        `json:"timestamp"`
}

// ScheduleRequest is the create/update schedule request body.
type ScheduleRequest struct {
	ZoneID      int    `json:"zone_id"`
	StartTime   string `json:"start_time"`
	DaysOfWeek  []int  `json:"days_of_week"`
	DurationSec int    `json:"duration_sec"`
	Enabled     bool   `json:"enabled"`
}

// RainDelayRequest is the rain delay setter request body. Hours and
// ExpiresAt are alternatives; ExpiresAt wins when both are present.
type RainDelayRequest struct {
	Active    bool       `json:"active"`
	Hours     float64    `json:"hours,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RainDelayResponse echoes the resulting rain delay state.
type RainDelayResponse struct {
	RainDelay state.RainDelay `json:"rain_delay"`
	Timestamp time.Time       `json:"timestamp"`
}

// StartZoneRequest is the optional zone start request body.
type StartZoneRequest struct {
	DurationSec int `json:"duration_sec"`
}

// RunsResponse is the paginated run history response.
type RunsResponse struct {
	Runs      []runlog.Entry `json:"runs"`
	Total     int            `json:"total"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
	Timestamp time.Time      `json:"timestamp"`
}

// HealthResponse is the health check API response.
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Uptime     float64   `json:"uptime"`
	RelayMode  string    `json:"relay_mode,omitempty"`
	ZonesTotal int       `json:"zones_total"`
}
