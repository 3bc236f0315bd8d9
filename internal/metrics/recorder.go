package metrics

import "time"

// Recorder defines observability hooks for engine and scheduler metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncZoneStart(source string)
	IncZoneStop(success bool)
	IncRelayFailure(operation string) // operation: activate|deactivate
	ObserveRunDuration(d time.Duration)
	SetActiveZone(zoneID int) // 0 means no zone active
	IncSchedulerTick()
	IncScheduleFired(result string) // result: success|skipped|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncZoneStart(string)              {}
func (NoopRecorder) IncZoneStop(bool)                 {}
func (NoopRecorder) IncRelayFailure(string)           {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) SetActiveZone(int)                {}
func (NoopRecorder) IncSchedulerTick()                {}
func (NoopRecorder) IncScheduleFired(string)          {}
