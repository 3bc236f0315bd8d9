package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/logfields"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// Schedules returns a copy of the schedule records.
func (e *Engine) Schedules() []state.Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]state.Schedule, len(e.snapshot.Schedules))
	copy(out, e.snapshot.Schedules)
	return out
}

// CreateSchedule validates and stores a new schedule. The id and
// timestamps are assigned here; any caller-provided values are ignored.
// Overlap with existing schedules is permitted; conflicts resolve at
// trigger time through the single-active-zone rule.
func (e *Engine) CreateSchedule(sched state.Schedule) (state.Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sched.Validate(); err != nil {
		return state.Schedule{}, err
	}
	if e.findZoneLocked(sched.ZoneID) == nil {
		return state.Schedule{}, errors.ZoneNotFound(sched.ZoneID)
	}

	now := e.clock.Now()
	sched.ID = uuid.NewString()
	sched.CreatedAt = now
	sched.UpdatedAt = now
	sched.LastRun = nil
	e.snapshot.Schedules = append(e.snapshot.Schedules, sched)

	if err := e.persistLocked(); err != nil {
		e.log.Error("state persist failed after schedule create", logfields.Error(err))
	}
	e.log.Info("schedule created",
		logfields.ScheduleID(sched.ID), logfields.ZoneID(sched.ZoneID))
	return sched, nil
}

// UpdateSchedule replaces the mutable fields of an existing schedule.
func (e *Engine) UpdateSchedule(id string, sched state.Schedule) (state.Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sched.Validate(); err != nil {
		return state.Schedule{}, err
	}
	if e.findZoneLocked(sched.ZoneID) == nil {
		return state.Schedule{}, errors.ZoneNotFound(sched.ZoneID)
	}

	for i := range e.snapshot.Schedules {
		existing := &e.snapshot.Schedules[i]
		if existing.ID != id {
			continue
		}
		existing.ZoneID = sched.ZoneID
		existing.StartTime = sched.StartTime
		existing.DaysOfWeek = sched.DaysOfWeek
		existing.DurationSec = sched.DurationSec
		existing.Enabled = sched.Enabled
		existing.UpdatedAt = e.clock.Now()

		if err := e.persistLocked(); err != nil {
			e.log.Error("state persist failed after schedule update", logfields.Error(err))
		}
		e.log.Info("schedule updated", logfields.ScheduleID(id))
		return *existing, nil
	}
	return state.Schedule{}, errors.ScheduleNotFound(id)
}

// DeleteSchedule removes a schedule by id.
func (e *Engine) DeleteSchedule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.snapshot.Schedules {
		if e.snapshot.Schedules[i].ID != id {
			continue
		}
		e.snapshot.Schedules = append(e.snapshot.Schedules[:i], e.snapshot.Schedules[i+1:]...)
		if err := e.persistLocked(); err != nil {
			e.log.Error("state persist failed after schedule delete", logfields.Error(err))
		}
		e.log.Info("schedule deleted", logfields.ScheduleID(id))
		return nil
	}
	return errors.ScheduleNotFound(id)
}

// UpdateScheduleLastRun marks a schedule as having fired at t. Used by
// the scheduler to suppress duplicate triggers within the same minute.
func (e *Engine) UpdateScheduleLastRun(id string, t time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.snapshot.Schedules {
		sched := &e.snapshot.Schedules[i]
		if sched.ID != id {
			continue
		}
		sched.LastRun = &t
		if err := e.persistLocked(); err != nil {
			e.log.Error("state persist failed after schedule last run", logfields.Error(err))
		}
		return nil
	}
	return errors.ScheduleNotFound(id)
}
