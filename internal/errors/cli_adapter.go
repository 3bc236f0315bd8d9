package errors

import (
	"fmt"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if ee, ok := err.(*EngineError); ok {
		return a.exitCodeFromEngine(ee)
	}

	return 1
}

// exitCodeFromEngine maps EngineError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromEngine(err *EngineError) int {
	switch err.Category {
	case CategoryValidation, CategoryNotFound:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryPolicy:
		return 3 // Rejected by policy
	case CategoryHardware, CategoryNetwork:
		return 8 // External system error
	case CategoryPersistence:
		return 11 // Storage error
	case CategoryDaemon, CategoryScheduler:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if ee, ok := err.(*EngineError); ok {
		if a.verbose {
			return ee.Error()
		}
		return fmt.Sprintf("Error: %s", ee.Message)
	}

	return fmt.Sprintf("Error: %v", err)
}
