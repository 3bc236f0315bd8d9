// Package daemon wires the engine, scheduler, HTTP surface and optional
// event publishing into one long-running process.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/engine"
	"github.com/JoeyEinTX/aquamind/internal/events"
	"github.com/JoeyEinTX/aquamind/internal/logfields"
	"github.com/JoeyEinTX/aquamind/internal/metrics"
	"github.com/JoeyEinTX/aquamind/internal/relay"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/scheduler"
	"github.com/JoeyEinTX/aquamind/internal/server/httpserver"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// Status is the daemon lifecycle state.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

func (s Status) String() string { return string(s) }

const sqliteLogFileName = "run-log.db"

// Daemon owns the component lifecycle.
type Daemon struct {
	mu        sync.Mutex
	status    atomic.Value // Status
	startTime time.Time

	config    *config.Config
	driver    relay.Driver
	runs      *runlog.Logger
	engine    *engine.Engine
	scheduler *scheduler.Scheduler
	httpSrv   *httpserver.Server
	publisher events.Publisher
	watcher   *ConfigWatcher

	registry *prometheus.Registry

	stopChan    chan struct{}
	pollDone    chan struct{}
	pollStarted bool
}

// New builds a daemon from configuration. configPath enables live config
// reloading when non-empty.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	d := &Daemon{
		config:    cfg,
		publisher: events.NoopPublisher{},
		stopChan:  make(chan struct{}),
		pollDone:  make(chan struct{}),
	}
	d.status.Store(StatusStopped)

	d.driver = relay.NewDriver(cfg.Relay)

	stateStore, err := state.NewJSONStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	runStore, err := newRunLogStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log store: %w", err)
	}
	d.runs = runlog.NewLogger(runStore)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		d.registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("NATS unavailable, event publishing disabled", logfields.Error(err))
		} else {
			d.publisher = pub
		}
	}

	eng, err := engine.New(d.driver, stateStore, d.runs, cfg.Zones,
		engine.WithMetrics(recorder),
		engine.WithDefaultDuration(cfg.Engine.DefaultDuration.Std()),
		engine.WithRunCompleted(d.publisher.PublishRunCompleted),
		engine.WithRainDelayChanged(d.publisher.PublishRainDelayChanged),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	d.engine = eng

	sched, err := scheduler.New(eng, cfg.Scheduler.TickInterval.Std(),
		scheduler.WithMetrics(recorder))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	d.scheduler = sched

	d.httpSrv = httpserver.New(cfg, eng, httpserver.Options{
		PrometheusRegistry: d.registry,
		RelayMode:          d.driver.Name(),
	})

	if configPath != "" {
		watcher, err := NewConfigWatcher(configPath, d)
		if err != nil {
			slog.Warn("config watcher unavailable", logfields.Error(err))
		} else {
			d.watcher = watcher
		}
	}

	return d, nil
}

func newRunLogStore(cfg *config.Config) (runlog.Store, error) {
	switch config.NormalizeRunLogBackend(cfg.RunLog.Backend) {
	case config.RunLogBackendSQLite:
		return runlog.NewSQLiteStore(filepath.Join(cfg.DataDir, sqliteLogFileName), cfg.RunLog.MaxEntries)
	default:
		return runlog.NewJSONStore(cfg.DataDir, cfg.RunLog.MaxEntries)
	}
}

// Start brings all components up and blocks until the context is
// cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	if err := d.httpSrv.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	d.scheduler.Start()

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			slog.Error("failed to start config watcher", logfields.Error(err))
		}
	}

	d.pollStarted = true
	go d.pollLoop(ctx)

	d.status.Store(StatusRunning)
	slog.Info("daemon started",
		logfields.RelayMode(d.driver.Name()),
		slog.Int("zones", len(d.config.Zones)),
		slog.Int("api_port", d.config.HTTP.APIPort),
		slog.Int("admin_port", d.config.HTTP.AdminPort))
	d.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-d.stopChan:
	}
	d.status.CompareAndSwap(StatusRunning, StatusStopping)
	return nil
}

// pollLoop drives the pull-based expiry check. Without it an expired run
// would only end on the next external status query.
func (d *Daemon) pollLoop(ctx context.Context) {
	defer close(d.pollDone)
	ticker := time.NewTicker(d.config.Engine.PollInterval.Std())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.engine.Status(ctx)
		}
	}
}

// Stop shuts components down in reverse start order.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.GetStatus()
	if current == StatusStopped {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("stopping daemon")

	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	if d.pollStarted {
		<-d.pollDone
	}

	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			slog.Error("failed to stop config watcher", logfields.Error(err))
		}
	}
	if err := d.scheduler.Stop(); err != nil {
		slog.Error("failed to stop scheduler", logfields.Error(err))
	}
	if err := d.httpSrv.Stop(ctx); err != nil {
		slog.Error("failed to stop HTTP server", logfields.Error(err))
	}

	// Switch off whatever is running before the process exits.
	for _, zone := range d.engine.Zones() {
		if zone.IsActive {
			if err := d.engine.StopZone(ctx, zone.ID); err != nil {
				slog.Error("failed to stop active zone during shutdown",
					logfields.ZoneID(zone.ID), logfields.Error(err))
			}
		}
	}

	d.publisher.Close()
	if err := d.runs.Close(); err != nil {
		slog.Error("failed to close run log store", logfields.Error(err))
	}

	d.status.Store(StatusStopped)
	slog.Info("daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// GetStatus returns the daemon lifecycle state.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns when the daemon started.
func (d *Daemon) GetStartTime() time.Time { return d.startTime }

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config { return d.config }

// Engine exposes the engine for CLI status commands.
func (d *Daemon) Engine() *engine.Engine { return d.engine }

// ReloadConfig applies a changed configuration. Only zone definitions
// take effect live; transport and storage changes need a restart.
func (d *Daemon) ReloadConfig(ctx context.Context, newConfig *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if newConfig.HTTP.APIPort != d.config.HTTP.APIPort ||
		newConfig.HTTP.AdminPort != d.config.HTTP.AdminPort {
		slog.Warn("HTTP port changes require a restart to take effect")
	}
	if config.NormalizeRelayMode(newConfig.Relay.Mode) != config.NormalizeRelayMode(d.config.Relay.Mode) {
		slog.Warn("relay mode changes require a restart to take effect")
	}

	d.engine.ReloadZones(ctx, newConfig.Zones)
	d.engine.SetDefaultDuration(newConfig.Engine.DefaultDuration.Std())
	d.config = newConfig
	slog.Info("configuration reloaded", slog.Int("zones", len(newConfig.Zones)))
	return nil
}
