package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	zoneStarts     *prom.CounterVec
	zoneStops      *prom.CounterVec
	relayFailures  *prom.CounterVec
	runDuration    prom.Histogram
	activeZone     prom.Gauge
	schedulerTicks prom.Counter
	scheduleFired  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.zoneStarts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "aquamind",
			Name:      "zone_starts_total",
			Help:      "Zone starts by source",
		}, []string{"source"})
		pr.zoneStops = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "aquamind",
			Name:      "zone_stops_total",
			Help:      "Zone stops by run outcome",
		}, []string{"result"})
		pr.relayFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "aquamind",
			Name:      "relay_failures_total",
			Help:      "Relay command failures by operation",
		}, []string{"operation"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "aquamind",
			Name:      "run_duration_seconds",
			Help:      "Actual watering run durations",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		})
		pr.activeZone = prom.NewGauge(prom.GaugeOpts{
			Namespace: "aquamind",
			Name:      "active_zone",
			Help:      "Currently active zone id (0 when idle)",
		})
		pr.schedulerTicks = prom.NewCounter(prom.CounterOpts{
			Namespace: "aquamind",
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler tick evaluations",
		})
		pr.scheduleFired = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "aquamind",
			Name:      "schedule_triggers_total",
			Help:      "Schedule trigger attempts by result",
		}, []string{"result"})
		reg.MustRegister(pr.zoneStarts, pr.zoneStops, pr.relayFailures, pr.runDuration, pr.activeZone, pr.schedulerTicks, pr.scheduleFired)
	})
	return pr
}

func (p *PrometheusRecorder) IncZoneStart(source string) {
	if p == nil || p.zoneStarts == nil {
		return
	}
	p.zoneStarts.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) IncZoneStop(success bool) {
	if p == nil || p.zoneStops == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	p.zoneStops.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncRelayFailure(operation string) {
	if p == nil || p.relayFailures == nil {
		return
	}
	p.relayFailures.WithLabelValues(operation).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetActiveZone(zoneID int) {
	if p == nil || p.activeZone == nil {
		return
	}
	p.activeZone.Set(float64(zoneID))
}

func (p *PrometheusRecorder) IncSchedulerTick() {
	if p == nil || p.schedulerTicks == nil {
		return
	}
	p.schedulerTicks.Inc()
}

func (p *PrometheusRecorder) IncScheduleFired(result string) {
	if p == nil || p.scheduleFired == nil {
		return
	}
	p.scheduleFired.WithLabelValues(result).Inc()
}
