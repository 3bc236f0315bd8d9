package config

// RelayMode selects the relay driver variant at startup.
type RelayMode string

const (
	RelayModeSimulated RelayMode = "simulated"
	RelayModeGPIO      RelayMode = "gpio"
	RelayModeRemote    RelayMode = "remote"
)

var relayModeNormalizer = newNormalizer(map[string]RelayMode{
	"simulated": RelayModeSimulated,
	"gpio":      RelayModeGPIO,
	"remote":    RelayModeRemote,
}, RelayModeSimulated)

func NormalizeRelayMode(raw string) RelayMode {
	return relayModeNormalizer.Normalize(raw)
}

// ParseRelayMode converts a raw string to a RelayMode, rejecting unknown values.
func ParseRelayMode(raw string) (RelayMode, error) {
	return relayModeNormalizer.NormalizeWithError(raw)
}

// RunLogBackend selects the persistence backend for the run history.
type RunLogBackend string

const (
	RunLogBackendJSON   RunLogBackend = "json"
	RunLogBackendSQLite RunLogBackend = "sqlite"
)

var runLogBackendNormalizer = newNormalizer(map[string]RunLogBackend{
	"json":   RunLogBackendJSON,
	"sqlite": RunLogBackendSQLite,
}, RunLogBackendJSON)

func NormalizeRunLogBackend(raw string) RunLogBackend {
	return runLogBackendNormalizer.Normalize(raw)
}
