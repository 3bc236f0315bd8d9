package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/engine"
	"github.com/JoeyEinTX/aquamind/internal/relay"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// Monday, so weekday 1 schedules match.
var mondaySix = time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, at time.Time) (*Scheduler, *engine.Engine, *clockwork.FakeClock, *relay.Simulated) {
	t.Helper()
	dir := t.TempDir()

	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)
	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	clock := clockwork.NewFakeClockAt(at)
	driver := relay.NewSimulated()
	eng, err := engine.New(driver, stateStore, runlog.NewLogger(runStore),
		[]config.ZoneConfig{{ID: 1, Name: "Front Lawn"}, {ID: 2, Name: "Back Garden"}},
		engine.WithClock(clock))
	require.NoError(t, err)

	sched, err := New(eng, time.Minute, WithClock(clock))
	require.NoError(t, err)
	return sched, eng, clock, driver
}

func createSchedule(t *testing.T, eng *engine.Engine, zoneID int, startTime string, days []int) state.Schedule {
	t.Helper()
	created, err := eng.CreateSchedule(state.Schedule{
		ZoneID:      zoneID,
		StartTime:   startTime,
		DaysOfWeek:  days,
		DurationSec: 300,
		Enabled:     true,
	})
	require.NoError(t, err)
	return created
}

func TestCheckNow_FiresMatchingSchedule(t *testing.T) {
	sched, eng, clock, driver := newTestScheduler(t, mondaySix)
	createSchedule(t, eng, 1, "06:00", []int{1})

	sched.CheckNow()

	require.True(t, driver.IsActive(1))
	listed := eng.Schedules()
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].LastRun)
	require.Equal(t, clock.Now(), *listed[0].LastRun)
}

func TestCheckNow_SameMinuteDoesNotRefire(t *testing.T) {
	sched, eng, clock, driver := newTestScheduler(t, mondaySix)
	createSchedule(t, eng, 1, "06:00", []int{1})

	sched.CheckNow()
	require.NoError(t, eng.StopZone(context.Background(), 1))

	// A second tick within the same wall-clock minute is ignored.
	clock.Advance(20 * time.Second)
	sched.CheckNow()
	require.False(t, driver.IsActive(1))

	entries, err := eng.RunHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCheckNow_LastRunWithinMinuteSkips(t *testing.T) {
	sched, eng, _, driver := newTestScheduler(t, mondaySix)
	created := createSchedule(t, eng, 1, "06:00", []int{1})

	// Another process instance already fired this schedule seconds ago.
	fired := mondaySix.Add(-30 * time.Second)
	require.NoError(t, eng.UpdateScheduleLastRun(created.ID, fired))

	sched.CheckNow()
	require.False(t, driver.IsActive(1))
}

func TestCheckNow_DisabledScheduleIgnored(t *testing.T) {
	sched, eng, _, driver := newTestScheduler(t, mondaySix)
	created := createSchedule(t, eng, 1, "06:00", []int{1})
	_, err := eng.UpdateSchedule(created.ID, state.Schedule{
		ZoneID:      created.ZoneID,
		StartTime:   created.StartTime,
		DaysOfWeek:  created.DaysOfWeek,
		DurationSec: created.DurationSec,
		Enabled:     false,
	})
	require.NoError(t, err)

	sched.CheckNow()
	require.False(t, driver.IsActive(1))
}

func TestCheckNow_WrongDayOrMinuteIgnored(t *testing.T) {
	sched, eng, _, driver := newTestScheduler(t, mondaySix)
	createSchedule(t, eng, 1, "06:01", []int{1}) // wrong minute
	createSchedule(t, eng, 2, "06:00", []int{0}) // Sunday only

	sched.CheckNow()
	require.False(t, driver.IsActive(1))
	require.False(t, driver.IsActive(2))
}

// zoneFailDriver fails activation for a single zone.
type zoneFailDriver struct {
	*relay.Simulated
	failZone int
}

func (d *zoneFailDriver) Activate(ctx context.Context, zoneID int) error {
	if zoneID == d.failZone {
		return context.DeadlineExceeded
	}
	return d.Simulated.Activate(ctx, zoneID)
}

// A failing schedule must not prevent later schedules in the same minute
// from being evaluated.
func TestCheckNow_FailureDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)
	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	clock := clockwork.NewFakeClockAt(mondaySix)
	driver := &zoneFailDriver{Simulated: relay.NewSimulated(), failZone: 1}
	eng, err := engine.New(driver, stateStore, runlog.NewLogger(runStore),
		[]config.ZoneConfig{{ID: 1, Name: "Front Lawn"}, {ID: 2, Name: "Back Garden"}},
		engine.WithClock(clock))
	require.NoError(t, err)

	sched, err := New(eng, time.Minute, WithClock(clock))
	require.NoError(t, err)

	first := createSchedule(t, eng, 1, "06:00", []int{1})
	second := createSchedule(t, eng, 2, "06:00", []int{1})

	sched.CheckNow()

	require.False(t, driver.IsActive(1))
	require.True(t, driver.IsActive(2))

	for _, s := range eng.Schedules() {
		switch s.ID {
		case first.ID:
			require.Nil(t, s.LastRun)
		case second.ID:
			require.NotNil(t, s.LastRun)
		}
	}
}
