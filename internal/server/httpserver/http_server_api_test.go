package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/JoeyEinTX/aquamind/internal/config"
	"github.com/JoeyEinTX/aquamind/internal/engine"
	"github.com/JoeyEinTX/aquamind/internal/relay"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

func newTestServer(t *testing.T) (*httptest.Server, *clockwork.FakeClock) {
	t.Helper()
	dir := t.TempDir()

	stateStore, err := state.NewJSONStore(dir)
	require.NoError(t, err)
	runStore, err := runlog.NewJSONStore(dir, 200)
	require.NoError(t, err)
	t.Cleanup(func() { runStore.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC))
	eng, err := engine.New(relay.NewSimulated(), stateStore, runlog.NewLogger(runStore),
		[]config.ZoneConfig{{ID: 1, Name: "Front Lawn"}, {ID: 2, Name: "Back Garden"}},
		engine.WithClock(clock))
	require.NoError(t, err)

	cfg := &config.Config{}
	srv := New(cfg, eng, Options{RelayMode: "simulated"})
	ts := httptest.NewServer(srv.mchain(srv.APIMux()))
	t.Cleanup(ts.Close)
	return ts, clock
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAPI_StartStopStatus(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/zones/1/start", responses.StartZoneRequest{DurationSec: 600})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	action := decodeBody[responses.ZoneActionResponse](t, resp)
	require.True(t, action.Success)
	require.Equal(t, "Front Lawn", action.ZoneName)

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	status := decodeBody[responses.StatusResponse](t, resp)
	require.NotNil(t, status.ActiveZoneID)
	require.Equal(t, 1, *status.ActiveZoneID)
	require.Equal(t, 600, status.TimeRemainingSec)

	resp = postJSON(t, ts.URL+"/api/zones/1/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	status = decodeBody[responses.StatusResponse](t, resp)
	require.Nil(t, status.ActiveZoneID)
}

func TestAPI_StartUnknownZoneReturns404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/zones/99/start", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_RainDelayBlocksStartWith409(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/rain-delay",
		bytes.NewReader([]byte(`{"active":true,"hours":24}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	rd := decodeBody[responses.RainDelayResponse](t, resp)
	require.True(t, rd.RainDelay.Active)
	require.InDelta(t, 24, rd.RainDelay.HoursRemaining, 0.01)

	resp = postJSON(t, ts.URL+"/api/zones/1/start", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_SetRainDelayRequiresExpiry(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/rain-delay",
		bytes.NewReader([]byte(`{"active":true}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ScheduleCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/schedules", responses.ScheduleRequest{
		ZoneID:      2,
		StartTime:   "06:30",
		DaysOfWeek:  []int{1, 4},
		DurationSec: 600,
		Enabled:     true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[state.Schedule](t, resp)
	require.NotEmpty(t, created.ID)

	resp, err := http.Get(ts.URL + "/api/schedules")
	require.NoError(t, err)
	listed := decodeBody[responses.SchedulesResponse](t, resp)
	require.Len(t, listed.Schedules, 1)

	body, err := json.Marshal(responses.ScheduleRequest{
		ZoneID:      2,
		StartTime:   "07:00",
		DaysOfWeek:  []int{2},
		DurationSec: 300,
		Enabled:     false,
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/schedules/"+created.ID, bytes.NewReader(body))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	updated := decodeBody[state.Schedule](t, resp)
	require.Equal(t, "07:00", updated.StartTime)
	require.False(t, updated.Enabled)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/schedules/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/schedules/"+created.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateScheduleInvalidReturns400(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/schedules", responses.ScheduleRequest{
		ZoneID:      1,
		StartTime:   "99:99",
		DaysOfWeek:  []int{1},
		DurationSec: 600,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RunsPagination(t *testing.T) {
	ts, clock := newTestServer(t)

	// Produce three runs by starting and stopping twice plus a preemption.
	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/api/zones/1/start", responses.StartZoneRequest{DurationSec: 300})
		resp.Body.Close()
		clock.Advance(30 * time.Second)
		resp = postJSON(t, ts.URL+"/api/zones/1/stop", nil)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/runs?limit=2&offset=0")
	require.NoError(t, err)
	page := decodeBody[responses.RunsResponse](t, resp)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Runs, 2)
	require.Equal(t, 2, page.Limit)

	resp, err = http.Get(ts.URL + "/api/runs?limit=2&offset=2")
	require.NoError(t, err)
	page = decodeBody[responses.RunsResponse](t, resp)
	require.Len(t, page.Runs, 1)

	resp, err = http.Get(ts.URL + "/api/runs?limit=2&offset=10")
	require.NoError(t, err)
	page = decodeBody[responses.RunsResponse](t, resp)
	require.Empty(t, page.Runs)
}

func TestAPI_ZonesList(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/zones")
	require.NoError(t, err)
	zones := decodeBody[responses.ZonesResponse](t, resp)
	require.Len(t, zones.Zones, 2)
	require.Equal(t, "Back Garden", zones.Zones[1].Name)
}
