package engine

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/JoeyEinTX/aquamind/internal/config"
	apperrors "github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/relay"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

var testZones = []config.ZoneConfig{
	{ID: 1, Name: "Front Lawn"},
	{ID: 2, Name: "Back Garden"},
	{ID: 3, Name: "Drip Line"},
}

type testEnv struct {
	engine *Engine
	clock  *clockwork.FakeClock
	driver *relay.Simulated
	store  state.Store
	runs   *runlog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)
	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	driver := relay.NewSimulated()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC))
	runs := runlog.NewLogger(runStore)

	eng, err := New(driver, stateStore, runs, testZones, WithClock(clock))
	require.NoError(t, err)
	return &testEnv{engine: eng, clock: clock, driver: driver, store: stateStore, runs: runs}
}

func TestStartZone_ActivatesAndPersists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StartZone(ctx, 1, 600, state.SourceManual))
	require.True(t, env.driver.IsActive(1))

	st := env.engine.Status(ctx)
	require.NotNil(t, st.ActiveZoneID)
	require.Equal(t, 1, *st.ActiveZoneID)
	require.Equal(t, "Front Lawn", st.ActiveZoneName)
	require.Equal(t, 600, st.TimeRemainingSec)

	snap, err := env.store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap.ActiveZoneID)
	require.Equal(t, 1, *snap.ActiveZoneID)
}

func TestStartZone_UnknownZone(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.StartZone(context.Background(), 99, 600, state.SourceManual)
	require.Error(t, err)
	require.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	require.Nil(t, env.engine.Status(context.Background()).ActiveZoneID)
}

func TestStartZone_DefaultDuration(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.engine.StartZone(context.Background(), 2, 0, state.SourceManual))
	st := env.engine.Status(context.Background())
	require.Equal(t, 600, st.TimeRemainingSec) // engine default is ten minutes
}

// Scenario: a second start while another zone runs must stop the first
// zone, log exactly one entry for it, and only then activate the new one.
func TestStartZone_PreemptsActiveZone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StartZone(ctx, 1, 600, state.SourceManual))
	env.clock.Advance(120 * time.Second)
	require.NoError(t, env.engine.StartZone(ctx, 2, 300, state.SourceManual))

	require.False(t, env.driver.IsActive(1))
	require.True(t, env.driver.IsActive(2))

	entries, err := env.engine.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].ZoneID)
	require.Equal(t, 120, entries[0].DurationSec)
	require.True(t, entries[0].Success)
}

// Scenario: rain delay blocks the start before anything else; no relay
// call, no state change, no run log entry.
func TestStartZone_RainDelayBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.engine.SetRainDelay(true, nil, 24)
	err := env.engine.StartZone(ctx, 1, 600, state.SourceManual)
	require.Error(t, err)
	require.True(t, apperrors.IsCategory(err, apperrors.CategoryPolicy))
	require.Equal(t, "Rain delay active", err.(*apperrors.EngineError).Message)

	require.False(t, env.driver.IsActive(1))
	entries, err := env.engine.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStartZone_RainDelayExpiresAutomatically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.engine.SetRainDelay(true, nil, 2)
	env.clock.Advance(3 * time.Hour)

	require.NoError(t, env.engine.StartZone(ctx, 1, 600, state.SourceManual))
	st := env.engine.Status(ctx)
	require.False(t, st.RainDelay.Active)
}

func TestSetRainDelay_DoesNotStopActiveZone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StartZone(ctx, 1, 600, state.SourceManual))
	env.engine.SetRainDelay(true, nil, 12)

	require.True(t, env.driver.IsActive(1))
	st := env.engine.Status(ctx)
	require.NotNil(t, st.ActiveZoneID)
	require.True(t, st.RainDelay.Active)
	require.InDelta(t, 12, st.RainDelay.HoursRemaining, 0.01)
}

// Scenario: the run log duration is the wall-clock delta, not the
// requested duration.
func TestStopZone_RecordsWallClockDuration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StartZone(ctx, 3, 900, state.SourceSchedule))
	env.clock.Advance(47 * time.Second)
	require.NoError(t, env.engine.StopZone(ctx, 3))

	entries, err := env.engine.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 47, entries[0].DurationSec)
	require.Equal(t, state.SourceSchedule, entries[0].Source)
	require.Equal(t, "Drip Line", entries[0].ZoneName)
}

func TestStopZone_InactiveZoneWritesNoEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StopZone(ctx, 2))
	entries, err := env.engine.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStopZone_UnknownZone(t *testing.T) {
	env := newTestEnv(t)
	err := env.engine.StopZone(context.Background(), 42)
	require.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

// Scenario: a zone whose end time has passed is stopped by the next
// status query, producing one run log entry.
func TestStatus_PullBasedExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StartZone(ctx, 1, 60, state.SourceManual))
	env.clock.Advance(61 * time.Second)

	st := env.engine.Status(ctx)
	require.Nil(t, st.ActiveZoneID)
	require.False(t, env.driver.IsActive(1))

	entries, err := env.engine.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 61, entries[0].DurationSec)
	require.True(t, entries[0].Success)
}

func TestStatus_NoExpiryBeforeEndTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.engine.StartZone(ctx, 1, 60, state.SourceManual))
	env.clock.Advance(30 * time.Second)

	st := env.engine.Status(ctx)
	require.NotNil(t, st.ActiveZoneID)
	require.Equal(t, 30, st.TimeRemainingSec)
}

// failingDriver wraps Simulated and fails selected operations.
type failingDriver struct {
	*relay.Simulated
	failActivate   bool
	failDeactivate bool
}

func (d *failingDriver) Activate(ctx context.Context, zoneID int) error {
	if d.failActivate {
		return apperrors.RelayActivateError(zoneID, context.DeadlineExceeded)
	}
	return d.Simulated.Activate(ctx, zoneID)
}

func (d *failingDriver) Deactivate(ctx context.Context, zoneID int) error {
	if d.failDeactivate {
		return apperrors.RelayDeactivateError(zoneID, context.DeadlineExceeded)
	}
	return d.Simulated.Deactivate(ctx, zoneID)
}

func newFailingEnv(t *testing.T, driver relay.Driver) *Engine {
	t.Helper()
	dir := t.TempDir()
	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)
	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC))
	eng, err := New(driver, stateStore, runlog.NewLogger(runStore), testZones, WithClock(clock))
	require.NoError(t, err)
	return eng
}

func TestStartZone_ActivateFailureAbortsWithoutStateChange(t *testing.T) {
	driver := &failingDriver{Simulated: relay.NewSimulated(), failActivate: true}
	eng := newFailingEnv(t, driver)
	ctx := context.Background()

	err := eng.StartZone(ctx, 1, 600, state.SourceManual)
	require.Error(t, err)
	require.True(t, apperrors.IsCategory(err, apperrors.CategoryHardware))

	st := eng.Status(ctx)
	require.Nil(t, st.ActiveZoneID)
	entries, err := eng.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStopZone_DeactivateFailureStillLogsUnsuccessfulRun(t *testing.T) {
	driver := &failingDriver{Simulated: relay.NewSimulated()}
	eng := newFailingEnv(t, driver)
	ctx := context.Background()

	require.NoError(t, eng.StartZone(ctx, 1, 600, state.SourceManual))
	driver.failDeactivate = true
	require.NoError(t, eng.StopZone(ctx, 1))

	entries, err := eng.RunHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].Success)

	st := eng.Status(ctx)
	require.Nil(t, st.ActiveZoneID)
}

func TestNew_SafeOffRecovery(t *testing.T) {
	dir := t.TempDir()
	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)

	// Simulate a crash with zone 2 persisted as active.
	end := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	two := 2
	require.NoError(t, stateStore.Save(&state.Snapshot{
		ActiveZoneID:   &two,
		ActiveZoneName: "Back Garden",
		Zones: []state.Zone{
			{ID: 1, Name: "Front Lawn"},
			{ID: 2, Name: "Back Garden", IsActive: true, EndTime: &end},
			{ID: 3, Name: "Drip Line"},
		},
	}))

	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	driver := relay.NewSimulated()
	eng, err := New(driver, stateStore, runlog.NewLogger(runStore), testZones)
	require.NoError(t, err)

	st := eng.Status(context.Background())
	require.Nil(t, st.ActiveZoneID)
	require.False(t, driver.IsActive(2))

	// No log entry is written: the original start time died with the
	// previous process.
	entries, err := eng.RunHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSchedules_CRUD(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.engine.CreateSchedule(state.Schedule{
		ZoneID:      1,
		StartTime:   "06:00",
		DaysOfWeek:  []int{1, 3, 5},
		DurationSec: 900,
		Enabled:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	listed := env.engine.Schedules()
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)

	updated, err := env.engine.UpdateSchedule(created.ID, state.Schedule{
		ZoneID:      2,
		StartTime:   "07:30",
		DaysOfWeek:  []int{0, 6},
		DurationSec: 600,
		Enabled:     false,
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "07:30", updated.StartTime)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	fired := env.clock.Now()
	require.NoError(t, env.engine.UpdateScheduleLastRun(created.ID, fired))
	require.NotNil(t, env.engine.Schedules()[0].LastRun)

	require.NoError(t, env.engine.DeleteSchedule(created.ID))
	require.Empty(t, env.engine.Schedules())
	require.True(t, apperrors.IsCategory(env.engine.DeleteSchedule(created.ID), apperrors.CategoryNotFound))
}

func TestCreateSchedule_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.CreateSchedule(state.Schedule{
		ZoneID:      1,
		StartTime:   "25:00",
		DaysOfWeek:  []int{1},
		DurationSec: 600,
	})
	require.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	_, err = env.engine.CreateSchedule(state.Schedule{
		ZoneID:      99,
		StartTime:   "06:00",
		DaysOfWeek:  []int{1},
		DurationSec: 600,
	})
	require.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestRunCompletedHook(t *testing.T) {
	dir := t.TempDir()
	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)
	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	var completed []runlog.Entry
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC))
	eng, err := New(relay.NewSimulated(), stateStore, runlog.NewLogger(runStore), testZones,
		WithClock(clock),
		WithRunCompleted(func(e runlog.Entry) { completed = append(completed, e) }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, eng.StartZone(ctx, 1, 120, state.SourceManual))
	clock.Advance(time.Minute)
	require.NoError(t, eng.StopZone(ctx, 1))

	require.Len(t, completed, 1)
	require.Equal(t, 60, completed[0].DurationSec)
	require.NotEmpty(t, completed[0].ID)
}
