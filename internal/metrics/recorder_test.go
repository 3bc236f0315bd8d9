package metrics

import (
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gatherMetric(t *testing.T, reg *prom.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if strings.HasSuffix(mf.GetName(), name) {
			return mf
		}
	}
	return nil
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncZoneStart("manual")
	rec.IncZoneStart("schedule")
	rec.IncZoneStart("schedule")
	rec.IncZoneStop(true)
	rec.IncRelayFailure("activate")
	rec.ObserveRunDuration(90 * time.Second)
	rec.SetActiveZone(2)
	rec.IncSchedulerTick()
	rec.IncScheduleFired("success")

	starts := gatherMetric(t, reg, "zone_starts_total")
	require.NotNil(t, starts)
	total := 0.0
	for _, m := range starts.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	require.Equal(t, 3.0, total)

	gauge := gatherMetric(t, reg, "active_zone")
	require.NotNil(t, gauge)
	require.Equal(t, 2.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestNoopRecorder_IsSafe(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	rec.IncZoneStart("manual")
	rec.IncZoneStop(false)
	rec.IncRelayFailure("deactivate")
	rec.ObserveRunDuration(time.Second)
	rec.SetActiveZone(0)
	rec.IncSchedulerTick()
	rec.IncScheduleFired("failed")
}
