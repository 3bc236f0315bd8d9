// Package scheduler fires schedule-defined zone runs. It wakes on a fixed
// interval, matches enabled schedules against the current wall-clock
// minute, and hands matching ones to the engine. One failing schedule
// never blocks the others.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/JoeyEinTX/aquamind/internal/engine"
	"github.com/JoeyEinTX/aquamind/internal/logfields"
	"github.com/JoeyEinTX/aquamind/internal/metrics"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// Scheduler drives schedule triggers off a periodic tick.
type Scheduler struct {
	engine  *engine.Engine
	clock   clockwork.Clock
	metrics metrics.Recorder
	log     *slog.Logger

	interval   time.Duration
	cron       gocron.Scheduler
	lastMinute time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock substitutes the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = r }
}

// New builds a scheduler ticking at the given interval. The interval
// should be at most a minute; schedules have minute granularity and a
// matching minute missed entirely is a missed run.
func New(eng *engine.Engine, interval time.Duration, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		engine:   eng,
		clock:    clockwork.NewRealClock(),
		metrics:  metrics.NoopRecorder{},
		log:      slog.Default(),
		interval: interval,
	}
	for _, opt := range opts {
		opt(s)
	}

	cron, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return nil, err
	}
	if _, err := cron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.CheckNow),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}
	s.cron = cron
	return s, nil
}

// Start begins ticking in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", slog.Duration("interval", s.interval))
}

// Stop halts ticking and waits for an in-flight check to finish.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// CheckNow evaluates all schedules against the current minute. Exposed so
// the daemon can trigger an immediate pass after a config reload.
func (s *Scheduler) CheckNow() {
	s.metrics.IncSchedulerTick()

	now := s.clock.Now()
	minute := now.Truncate(time.Minute)
	if minute.Equal(s.lastMinute) {
		return
	}
	s.lastMinute = minute

	for _, sched := range s.engine.Schedules() {
		if !sched.Enabled || !sched.MatchesMinute(now) {
			continue
		}
		if sched.LastRun != nil && now.Sub(*sched.LastRun) < time.Minute {
			s.metrics.IncScheduleFired("skipped")
			continue
		}
		s.fire(sched, now)
	}
}

func (s *Scheduler) fire(sched state.Schedule, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.engine.StartZone(ctx, sched.ZoneID, sched.DurationSec, state.SourceSchedule)
	if err != nil {
		s.metrics.IncScheduleFired("failed")
		s.log.Warn("schedule trigger failed",
			logfields.ScheduleID(sched.ID),
			logfields.ZoneID(sched.ZoneID),
			logfields.Error(err))
		return
	}

	if err := s.engine.UpdateScheduleLastRun(sched.ID, now); err != nil {
		s.log.Error("failed to record schedule last run",
			logfields.ScheduleID(sched.ID), logfields.Error(err))
	}
	s.metrics.IncScheduleFired("success")
	s.log.Info("schedule fired",
		logfields.ScheduleID(sched.ID),
		logfields.ZoneID(sched.ZoneID),
		logfields.DurationSec(sched.DurationSec))
}
