package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JoeyEinTX/aquamind/internal/errors"
)

// Config represents the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	DataDir   string          `yaml:"data_dir"`
	Zones     []ZoneConfig    `yaml:"zones"`
	Relay     RelayConfig     `yaml:"relay"`
	Engine    EngineConfig    `yaml:"engine"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RunLog    RunLogConfig    `yaml:"run_log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig controls slog handler selection.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ZoneConfig declares one physical irrigation zone. Zones are a fixed
// configuration list; they are never created or deleted at runtime.
type ZoneConfig struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// RelayConfig selects and parameterizes the relay driver variant.
type RelayConfig struct {
	Mode   string            `yaml:"mode"` // simulated, gpio, remote
	Pins   map[int]string    `yaml:"pins,omitempty"`
	Remote RemoteRelayConfig `yaml:"remote,omitempty"`
}

// RemoteRelayConfig configures the HTTP relay controller variant.
type RemoteRelayConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// EngineConfig tunes the zone control engine.
type EngineConfig struct {
	// DefaultDuration applies when a start request carries no duration.
	DefaultDuration Duration `yaml:"default_duration"`
	// PollInterval drives the pull-based expiry loop. Expiry is only
	// detected when status is evaluated, so this should stay in seconds.
	PollInterval Duration `yaml:"poll_interval"`
}

// SchedulerConfig tunes the schedule trigger loop.
type SchedulerConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
}

// RunLogConfig configures the bounded run history.
type RunLogConfig struct {
	Backend    string `yaml:"backend"` // json, sqlite
	MaxEntries int    `yaml:"max_entries"`
}

// HTTPConfig configures the API and admin listeners.
type HTTPConfig struct {
	APIPort   int `yaml:"api_port"`
	AdminPort int `yaml:"admin_port"`
}

// EventsConfig configures optional NATS event publishing. Publishing is
// disabled when NATSURL is empty.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Duration wraps time.Duration for YAML parsing of values like "10m" or "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to unmarshal config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills unset fields with working defaults.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = string(LogLevelInfo)
	}
	if c.Log.Format == "" {
		c.Log.Format = string(LogFormatText)
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Relay.Mode == "" {
		c.Relay.Mode = string(RelayModeSimulated)
	}
	if c.Relay.Remote.Timeout == 0 {
		c.Relay.Remote.Timeout = Duration(5 * time.Second)
	}
	if c.Engine.DefaultDuration == 0 {
		c.Engine.DefaultDuration = Duration(10 * time.Minute)
	}
	if c.Engine.PollInterval == 0 {
		c.Engine.PollInterval = Duration(5 * time.Second)
	}
	if c.Scheduler.TickInterval == 0 {
		c.Scheduler.TickInterval = Duration(60 * time.Second)
	}
	if c.RunLog.Backend == "" {
		c.RunLog.Backend = string(RunLogBackendJSON)
	}
	if c.RunLog.MaxEntries == 0 {
		c.RunLog.MaxEntries = 200
	}
	if c.HTTP.APIPort == 0 {
		c.HTTP.APIPort = 8080
	}
	if c.HTTP.AdminPort == 0 {
		c.HTTP.AdminPort = 8081
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "aquamind.events"
	}
}

// Validate checks the configuration for errors that would prevent startup.
func (c *Config) Validate() error {
	if len(c.Zones) == 0 {
		return errors.ConfigRequired("zones")
	}

	seen := make(map[int]bool, len(c.Zones))
	for _, z := range c.Zones {
		if z.ID <= 0 {
			return errors.ValidationFailed("zones.id", "zone ids must be positive")
		}
		if z.Name == "" {
			return errors.ValidationFailed("zones.name", fmt.Sprintf("zone %d has no name", z.ID))
		}
		if seen[z.ID] {
			return errors.ValidationFailed("zones.id", fmt.Sprintf("duplicate zone id %d", z.ID))
		}
		seen[z.ID] = true
	}

	mode, err := ParseRelayMode(c.Relay.Mode)
	if err != nil {
		return errors.ValidationFailed("relay.mode", err.Error())
	}
	if mode == RelayModeRemote && c.Relay.Remote.BaseURL == "" {
		return errors.ConfigRequired("relay.remote.base_url")
	}

	if c.RunLog.MaxEntries < 1 {
		return errors.ValidationFailed("run_log.max_entries", "must be at least 1")
	}
	if c.HTTP.APIPort == c.HTTP.AdminPort {
		return errors.ValidationFailed("http", "api_port and admin_port must differ")
	}
	if c.Engine.PollInterval.Std() < time.Second {
		return errors.ValidationFailed("engine.poll_interval", "must be at least 1s")
	}
	if c.Scheduler.TickInterval.Std() < time.Second {
		return errors.ValidationFailed("scheduler.tick_interval", "must be at least 1s")
	}

	return nil
}

// ZoneName returns the configured name for a zone id, or the empty string.
func (c *Config) ZoneName(id int) string {
	for _, z := range c.Zones {
		if z.ID == id {
			return z.Name
		}
	}
	return ""
}

const defaultConfigTemplate = `# AquaMind engine configuration
log:
  level: info   # debug, info, warn, error
  format: text  # text, json

data_dir: ./data

# Physical irrigation zones. One record per relay output.
zones:
  - id: 1
    name: Front Lawn
  - id: 2
    name: Back Lawn
  - id: 3
    name: Garden Beds

relay:
  mode: simulated # simulated, gpio, remote
  # gpio mode: zone id -> header pin (Raspberry Pi numbering)
  pins:
    1: "7"
    2: "11"
    3: "13"
  remote:
    base_url: http://relay-controller.local:8000
    timeout: 5s

engine:
  default_duration: 10m
  poll_interval: 5s

scheduler:
  tick_interval: 60s

run_log:
  backend: json # json, sqlite
  max_entries: 200

http:
  api_port: 8080
  admin_port: 8081

# Optional: publish run events to NATS for dashboards/notifiers.
events:
  nats_url: ""
  subject: aquamind.events

metrics:
  enabled: true
`

// Init writes a commented default configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal, "configuration file already exists").
			WithContext("path", configPath)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0644); err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to write config file")
	}
	return nil
}
