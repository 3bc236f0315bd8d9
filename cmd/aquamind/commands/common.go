// Package commands defines the CLI command structure.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/JoeyEinTX/aquamind/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon DaemonCmd `cmd:"" help:"Run the irrigation control daemon"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
	Status StatusCmd `cmd:"" help:"Show engine status from a running daemon"`
	Logs   LogsCmd   `cmd:"" help:"Show recent watering runs from a running daemon"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// configureLogging replaces the bootstrap logger with the configured one.
// The verbose flag always wins over the configured level.
func configureLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	switch config.NormalizeLogLevel(cfg.Log.Level) {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.NormalizeLogFormat(cfg.Log.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
