package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	DataDir string `short:"d" help:"Data directory override for engine state and run log"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if d.DataDir != "" {
		cfg.DataDir = d.DataDir
	}
	configureLogging(cfg, root.Verbose)
	return RunDaemon(cfg, root.Config)
}

// RunDaemon starts the daemon and blocks until a shutdown signal.
func RunDaemon(cfg *config.Config, configPath string) error {
	slog.Info("starting daemon", slog.String("data_dir", cfg.DataDir))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, configPath)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	slog.Info("daemon started, waiting for shutdown signal")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping daemon")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	slog.Info("daemon stopped successfully")
	return nil
}
