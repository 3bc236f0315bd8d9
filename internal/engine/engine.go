// Package engine implements the zone control core: the single-active-zone
// state machine, the rain delay gate, run bookkeeping, and schedule record
// management. All mutating entry points share one mutex, so callers may use
// the engine from any goroutine.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/logfields"
	"github.com/JoeyEinTX/aquamind/internal/metrics"
	"github.com/JoeyEinTX/aquamind/internal/relay"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// activeRun tracks an in-flight watering run. It is deliberately not
// persisted; a restart while a zone runs loses the start time, and the
// constructor recovers by switching everything off (see New).
type activeRun struct {
	zoneID int
	start  time.Time
	source state.RunSource
}

// Engine owns the engine state snapshot and serializes every mutation.
type Engine struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	driver  relay.Driver
	store   state.Store
	runs    *runlog.Logger
	metrics metrics.Recorder
	log     *slog.Logger

	snapshot        *state.Snapshot
	active          *activeRun
	defaultDuration time.Duration

	runCompleted     func(runlog.Entry)
	rainDelayChanged func(state.RainDelay)
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithClock substitutes the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithDefaultDuration overrides the duration applied when a start request
// carries none.
func WithDefaultDuration(d time.Duration) Option {
	return func(e *Engine) { e.defaultDuration = d }
}

// WithRunCompleted registers a hook invoked (outside the engine lock is NOT
// guaranteed; keep it fast) after every run log entry is written.
func WithRunCompleted(fn func(runlog.Entry)) Option {
	return func(e *Engine) { e.runCompleted = fn }
}

// WithRainDelayChanged registers a hook invoked after SetRainDelay.
func WithRainDelayChanged(fn func(state.RainDelay)) Option {
	return func(e *Engine) { e.rainDelayChanged = fn }
}

// New builds an engine over the given driver, snapshot store and run log.
// The configured zone list is the source of truth: persisted zones that are
// no longer configured are dropped, new ones are added, and names follow
// the configuration.
//
// Recovery is safe-off: any zone persisted as active belongs to a run whose
// start time died with the previous process, so its relay is switched off
// and its flags cleared without writing a log entry.
func New(driver relay.Driver, store state.Store, runs *runlog.Logger, zones []config.ZoneConfig, opts ...Option) (*Engine, error) {
	e := &Engine{
		clock:           clockwork.NewRealClock(),
		driver:          driver,
		store:           store,
		runs:            runs,
		metrics:         metrics.NoopRecorder{},
		log:             slog.Default(),
		defaultDuration: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}

	snapshot, err := store.Load()
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &state.Snapshot{}
	}
	e.snapshot = snapshot
	e.reconcileZones(zones)
	e.recoverSafeOff(context.Background())

	if err := e.persistLocked(); err != nil {
		return nil, err
	}
	return e, nil
}

// reconcileZones aligns the snapshot's zone list with configuration.
func (e *Engine) reconcileZones(zones []config.ZoneConfig) {
	persisted := make(map[int]state.Zone, len(e.snapshot.Zones))
	for _, z := range e.snapshot.Zones {
		persisted[z.ID] = z
	}
	reconciled := make([]state.Zone, 0, len(zones))
	for _, zc := range zones {
		zone := state.Zone{ID: zc.ID, Name: zc.Name}
		if prev, ok := persisted[zc.ID]; ok {
			zone.IsActive = prev.IsActive
			zone.EndTime = prev.EndTime
		}
		reconciled = append(reconciled, zone)
	}
	e.snapshot.Zones = reconciled
}

// recoverSafeOff deactivates anything the previous process left running.
func (e *Engine) recoverSafeOff(ctx context.Context) {
	for i := range e.snapshot.Zones {
		zone := &e.snapshot.Zones[i]
		if !zone.IsActive {
			continue
		}
		e.log.Warn("zone was active at shutdown, switching off",
			logfields.ZoneID(zone.ID), logfields.ZoneName(zone.Name))
		if err := e.driver.Deactivate(ctx, zone.ID); err != nil {
			e.log.Error("recovery deactivate failed",
				logfields.ZoneID(zone.ID), logfields.Error(err))
		}
		zone.IsActive = false
		zone.EndTime = nil
	}
	e.snapshot.ActiveZoneID = nil
	e.snapshot.ActiveZoneName = ""
}

// StartZone activates a zone for the given duration. A non-positive
// duration selects the engine default. The rain delay gate is evaluated
// first; an active zone elsewhere is stopped (and logged) before the new
// zone's relay is touched, so at most one relay is ever energized.
func (e *Engine) StartZone(ctx context.Context, zoneID, durationSec int, source state.RunSource) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.refreshRainDelayLocked(now)
	if e.snapshot.RainDelay.Active {
		return errors.RainDelayActive()
	}

	if e.active != nil && e.active.zoneID != zoneID {
		e.stopZoneLocked(ctx, e.active.zoneID, true)
	}

	zone := e.findZoneLocked(zoneID)
	if zone == nil {
		return errors.ZoneNotFound(zoneID)
	}

	duration := time.Duration(durationSec) * time.Second
	if durationSec <= 0 {
		duration = e.defaultDuration
		durationSec = int(duration / time.Second)
	}

	if err := e.driver.Activate(ctx, zoneID); err != nil {
		e.metrics.IncRelayFailure("activate")
		e.log.Error("relay activation failed",
			logfields.ZoneID(zoneID), logfields.Error(err))
		return errors.RelayActivateError(zoneID, err)
	}

	end := now.Add(duration)
	e.active = &activeRun{zoneID: zoneID, start: now, source: source}
	zone.IsActive = true
	zone.EndTime = &end
	e.snapshot.ActiveZoneID = &zone.ID
	e.snapshot.ActiveZoneName = zone.Name
	e.snapshot.DurationSec = durationSec

	if err := e.persistLocked(); err != nil {
		e.log.Error("state persist failed after start", logfields.Error(err))
	}

	e.metrics.IncZoneStart(string(source))
	e.metrics.SetActiveZone(zoneID)
	e.log.Info("zone started",
		logfields.ZoneID(zoneID),
		logfields.ZoneName(zone.Name),
		logfields.Source(string(source)),
		logfields.DurationSec(durationSec))
	return nil
}

// StopZone deactivates a zone and records its run. Stopping a zone that is
// not running clears its flags without writing a log entry.
func (e *Engine) StopZone(ctx context.Context, zoneID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopZoneLocked(ctx, zoneID, true)
}

// stopZoneLocked implements stop under the engine lock. A relay
// deactivation failure forces success=false on the log entry but never
// aborts bookkeeping; leaving state claiming a zone is on when nobody will
// turn it off again is worse than an inaccurate flag.
func (e *Engine) stopZoneLocked(ctx context.Context, zoneID int, success bool) error {
	zone := e.findZoneLocked(zoneID)
	if zone == nil {
		return errors.ZoneNotFound(zoneID)
	}

	if err := e.driver.Deactivate(ctx, zoneID); err != nil {
		success = false
		e.metrics.IncRelayFailure("deactivate")
		e.log.Error("relay deactivation failed",
			logfields.ZoneID(zoneID), logfields.Error(err))
	}

	now := e.clock.Now()
	if e.active != nil && e.active.zoneID == zoneID {
		elapsed := int(math.Round(now.Sub(e.active.start).Seconds()))
		entry := runlog.Entry{
			ZoneID:      zoneID,
			ZoneName:    zone.Name,
			Source:      e.active.source,
			StartedAt:   e.active.start,
			StoppedAt:   now,
			DurationSec: elapsed,
			Success:     success,
		}
		stored, err := e.runs.Add(ctx, entry)
		if err != nil {
			e.log.Error("run log append failed",
				logfields.ZoneID(zoneID), logfields.Error(err))
		} else {
			e.metrics.ObserveRunDuration(now.Sub(e.active.start))
			if e.runCompleted != nil {
				e.runCompleted(stored)
			}
		}
		e.snapshot.LastRun = &now
		e.active = nil
		e.metrics.IncZoneStop(success)
		e.log.Info("zone stopped",
			logfields.ZoneID(zoneID),
			logfields.ZoneName(zone.Name),
			logfields.DurationSec(elapsed))
	}

	zone.IsActive = false
	zone.EndTime = nil
	if e.snapshot.ActiveZoneID != nil && *e.snapshot.ActiveZoneID == zoneID {
		e.snapshot.ActiveZoneID = nil
		e.snapshot.ActiveZoneName = ""
	}
	e.metrics.SetActiveZone(0)

	if err := e.persistLocked(); err != nil {
		e.log.Error("state persist failed after stop", logfields.Error(err))
	}
	return nil
}

// Status describes the engine's externally visible state.
type Status struct {
	ActiveZoneID     *int            `json:"active_zone_id"`
	ActiveZoneName   string          `json:"active_zone_name,omitempty"`
	TimeRemainingSec int             `json:"time_remaining_sec"`
	RainDelay        state.RainDelay `json:"rain_delay"`
	LastRun          *time.Time      `json:"last_run,omitempty"`
}

// Status reports the current state. Expiry is pull-based: a zone whose
// end time has passed is stopped here, not by a timer, so callers must
// poll at a cadence of seconds for timely auto-stop.
func (e *Engine) Status(ctx context.Context) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.refreshRainDelayLocked(now)

	if e.snapshot.ActiveZoneID != nil {
		if zone := e.findZoneLocked(*e.snapshot.ActiveZoneID); zone != nil &&
			zone.EndTime != nil && !now.Before(*zone.EndTime) {
			e.log.Info("zone run expired", logfields.ZoneID(zone.ID))
			e.stopZoneLocked(ctx, zone.ID, true)
		}
	}

	st := Status{
		ActiveZoneID:   e.snapshot.ActiveZoneID,
		ActiveZoneName: e.snapshot.ActiveZoneName,
		RainDelay:      e.snapshot.RainDelay,
		LastRun:        e.snapshot.LastRun,
	}
	if st.ActiveZoneID != nil {
		if zone := e.findZoneLocked(*st.ActiveZoneID); zone != nil && zone.EndTime != nil {
			remaining := zone.EndTime.Sub(now)
			if remaining > 0 {
				st.TimeRemainingSec = int(math.Round(remaining.Seconds()))
			}
		}
	}
	return st
}

// SetRainDelay replaces the rain delay state unconditionally. It never
// stops an already-active zone; the gate only applies to future starts.
// When hours is positive and no explicit expiry is given, the expiry is
// derived from now.
func (e *Engine) SetRainDelay(active bool, expiresAt *time.Time, hours float64) state.RainDelay {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	delay := state.RainDelay{Active: active}
	if active {
		if expiresAt == nil && hours > 0 {
			t := now.Add(time.Duration(hours * float64(time.Hour)))
			expiresAt = &t
		}
		delay.ExpiresAt = expiresAt
		if expiresAt != nil {
			delay.HoursRemaining = expiresAt.Sub(now).Hours()
		}
	}
	e.snapshot.RainDelay = delay

	if err := e.persistLocked(); err != nil {
		e.log.Error("state persist failed after rain delay change", logfields.Error(err))
	}
	e.log.Info("rain delay updated",
		slog.Bool("active", delay.Active),
		slog.Float64("hours_remaining", delay.HoursRemaining))
	if e.rainDelayChanged != nil {
		e.rainDelayChanged(delay)
	}
	return delay
}

// refreshRainDelayLocked auto-clears an expired delay and otherwise
// recomputes the remaining hours.
func (e *Engine) refreshRainDelayLocked(now time.Time) {
	rd := &e.snapshot.RainDelay
	if !rd.Active {
		return
	}
	if rd.ExpiresAt != nil && !now.Before(*rd.ExpiresAt) {
		e.log.Info("rain delay expired")
		*rd = state.RainDelay{}
		if err := e.persistLocked(); err != nil {
			e.log.Error("state persist failed after rain delay expiry", logfields.Error(err))
		}
		return
	}
	if rd.ExpiresAt != nil {
		rd.HoursRemaining = rd.ExpiresAt.Sub(now).Hours()
	}
}

// SetDefaultDuration updates the duration applied to start requests that
// carry none. Takes effect for future starts only.
func (e *Engine) SetDefaultDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d > 0 {
		e.defaultDuration = d
	}
}

// ReloadZones applies a changed zone configuration. Active state is
// retained for zones that survive the change; a removed active zone is
// switched off first.
func (e *Engine) ReloadZones(ctx context.Context, zones []config.ZoneConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		retained := false
		for _, zc := range zones {
			if zc.ID == e.active.zoneID {
				retained = true
				break
			}
		}
		if !retained {
			e.stopZoneLocked(ctx, e.active.zoneID, true)
		}
	}

	e.reconcileZones(zones)
	if e.snapshot.ActiveZoneID != nil {
		e.snapshot.ActiveZoneName = ""
		if zone := e.findZoneLocked(*e.snapshot.ActiveZoneID); zone != nil {
			e.snapshot.ActiveZoneName = zone.Name
		}
	}
	if err := e.persistLocked(); err != nil {
		e.log.Error("state persist failed after zone reload", logfields.Error(err))
	}
	e.log.Info("zone configuration reloaded", slog.Int("zones", len(zones)))
}

// Zones returns a copy of the zone records.
func (e *Engine) Zones() []state.Zone {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]state.Zone, len(e.snapshot.Zones))
	copy(out, e.snapshot.Zones)
	return out
}

// RunHistory returns the newest-first run log, capped at limit when
// positive.
func (e *Engine) RunHistory(ctx context.Context, limit int) ([]runlog.Entry, error) {
	return e.runs.Entries(ctx, limit)
}

func (e *Engine) findZoneLocked(zoneID int) *state.Zone {
	for i := range e.snapshot.Zones {
		if e.snapshot.Zones[i].ID == zoneID {
			return &e.snapshot.Zones[i]
		}
	}
	return nil
}

func (e *Engine) persistLocked() error {
	if err := e.store.Save(e.snapshot); err != nil {
		return errors.StateSaveError(err)
	}
	return nil
}
