package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Zones: []config.ZoneConfig{
			{ID: 1, Name: "Front Lawn"},
			{ID: 2, Name: "Back Garden"},
		},
		Relay: config.RelayConfig{Mode: "simulated"},
		Engine: config.EngineConfig{
			DefaultDuration: config.Duration(10 * time.Minute),
			PollInterval:    config.Duration(time.Second),
		},
		Scheduler: config.SchedulerConfig{TickInterval: config.Duration(time.Minute)},
		RunLog:    config.RunLogConfig{Backend: "json", MaxEntries: 200},
		// Port 0 binds an ephemeral port, keeping tests parallel-safe.
		HTTP: config.HTTPConfig{APIPort: 0, AdminPort: 0},
	}
}

func TestDaemon_StartAndStop(t *testing.T) {
	d, err := New(testConfig(t), "")
	require.NoError(t, err)
	require.Equal(t, StatusStopped, d.GetStatus())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	require.Eventually(t, func() bool {
		return d.GetStatus() == StatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, d.Stop(context.Background()))
	require.Equal(t, StatusStopped, d.GetStatus())
	require.NoError(t, <-done)
}

func TestDaemon_StartTwiceFails(t *testing.T) {
	d, err := New(testConfig(t), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = d.Start(ctx) }()
	require.Eventually(t, func() bool {
		return d.GetStatus() == StatusRunning
	}, 5*time.Second, 10*time.Millisecond)
	t.Cleanup(func() { _ = d.Stop(context.Background()) })

	require.Error(t, d.Start(ctx))
}

func TestDaemon_StopSwitchesOffActiveZone(t *testing.T) {
	d, err := New(testConfig(t), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = d.Start(ctx) }()
	require.Eventually(t, func() bool {
		return d.GetStatus() == StatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, d.Engine().StartZone(ctx, 1, 600, state.SourceManual))
	require.NoError(t, d.Stop(context.Background()))

	for _, zone := range d.Engine().Zones() {
		require.False(t, zone.IsActive)
	}
	entries, err := d.Engine().RunHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDaemon_ReloadConfigRenamesZone(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg, "")
	require.NoError(t, err)

	updated := *cfg
	updated.Zones = []config.ZoneConfig{
		{ID: 1, Name: "Front Yard"},
		{ID: 2, Name: "Back Garden"},
	}
	require.NoError(t, d.ReloadConfig(context.Background(), &updated))

	zones := d.Engine().Zones()
	require.Equal(t, "Front Yard", zones[0].Name)
	require.Equal(t, "Front Yard", d.GetConfig().ZoneName(1))
}
