package relay

import (
	"log/slog"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/logfields"
)

// NewDriver selects the relay variant from configuration. If the GPIO
// subsystem itself cannot initialize, the driver degrades to Simulated
// rather than failing startup.
func NewDriver(cfg config.RelayConfig) Driver {
	switch config.NormalizeRelayMode(cfg.Mode) {
	case config.RelayModeGPIO:
		driver, err := NewGPIO(cfg.Pins)
		if err != nil {
			slog.Warn("GPIO subsystem unavailable, degrading to simulated relays",
				logfields.Error(err))
			return NewSimulated()
		}
		slog.Info("Relay driver initialized", logfields.RelayMode(driver.Name()))
		return driver
	case config.RelayModeRemote:
		driver := NewRemote(cfg.Remote.BaseURL, cfg.Remote.Timeout.Std())
		slog.Info("Relay driver initialized",
			logfields.RelayMode(driver.Name()),
			slog.String("base_url", cfg.Remote.BaseURL))
		return driver
	default:
		slog.Info("Relay driver initialized", logfields.RelayMode("simulated"))
		return NewSimulated()
	}
}
