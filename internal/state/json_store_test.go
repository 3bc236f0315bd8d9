package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJSONStore_LoadMissingReturnsNil(t *testing.T) {
	store, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	snapshot, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, snapshot)
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	end := time.Now().Add(10 * time.Second).Truncate(time.Second)
	activeID := 1
	snapshot := &Snapshot{
		ActiveZoneID:   &activeID,
		ActiveZoneName: "Front Lawn",
		DurationSec:    600,
		RainDelay:      RainDelay{Active: false},
		Zones: []Zone{
			{ID: 1, Name: "Front Lawn", IsActive: true, EndTime: &end},
			{ID: 2, Name: "Back Lawn"},
		},
		Schedules: []Schedule{
			{ID: "s1", ZoneID: 2, StartTime: "06:00", DaysOfWeek: []int{1}, DurationSec: 600, Enabled: true},
		},
	}

	require.NoError(t, store.Save(snapshot))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, &activeID, loaded.ActiveZoneID)
	require.Equal(t, "Front Lawn", loaded.ActiveZoneName)
	require.Len(t, loaded.Zones, 2)
	require.True(t, loaded.Zones[0].IsActive)
	require.NotNil(t, loaded.Zones[0].EndTime)
	require.WithinDuration(t, end, *loaded.Zones[0].EndTime, time.Second)
	require.Len(t, loaded.Schedules, 1)
	require.Equal(t, "06:00", loaded.Schedules[0].StartTime)
	require.False(t, loaded.UpdatedAt.IsZero())

	// No stray temp file left behind.
	_, err = os.Stat(filepath.Join(dir, stateFileName+".tmp"))
	require.True(t, os.IsNotExist(err))
}

func TestJSONStore_CorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), []byte("{not json"), 0644))

	_, err = store.Load()
	require.Error(t, err)
}
