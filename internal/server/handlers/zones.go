package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/engine"
	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// EngineInterface defines the engine operations the API handlers need.
type EngineInterface interface {
	StartZone(ctx context.Context, zoneID, durationSec int, source state.RunSource) error
	StopZone(ctx context.Context, zoneID int) error
	Status(ctx context.Context) engine.Status
	Zones() []state.Zone
	SetRainDelay(active bool, expiresAt *time.Time, hours float64) state.RainDelay
	Schedules() []state.Schedule
	CreateSchedule(sched state.Schedule) (state.Schedule, error)
	UpdateSchedule(id string, sched state.Schedule) (state.Schedule, error)
	DeleteSchedule(id string) error
	RunHistory(ctx context.Context, limit int) ([]runlog.Entry, error)
}

// ZoneHandlers contains the zone control HTTP handlers.
type ZoneHandlers struct {
	engine       EngineInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewZoneHandlers creates a new zone handlers instance.
func NewZoneHandlers(eng EngineInterface) *ZoneHandlers {
	return &ZoneHandlers{
		engine:       eng,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleStatus returns the engine status.
func (h *ZoneHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status(r.Context())
	resp := &responses.StatusResponse{
		ActiveZoneID:     st.ActiveZoneID,
		ActiveZoneName:   st.ActiveZoneName,
		TimeRemainingSec: st.TimeRemainingSec,
		RainDelay:        st.RainDelay,
		LastRun:          st.LastRun,
		Timestamp:        time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write status response", err))
	}
}

// HandleListZones returns the configured zones with live state.
func (h *ZoneHandlers) HandleListZones(w http.ResponseWriter, r *http.Request) {
	resp := &responses.ZonesResponse{
		Zones:     h.engine.Zones(),
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write zones response", err))
	}
}

// HandleStartZone starts a zone. The request body is optional; without a
// duration the engine default applies.
func (h *ZoneHandlers) HandleStartZone(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := pathZoneID(r)
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("zone id must be an integer"))
		return
	}

	var req responses.StartZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid request body"))
		return
	}

	if err := h.engine.StartZone(r.Context(), zoneID, req.DurationSec, state.SourceManual); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := &responses.ZoneActionResponse{
		Success:  true,
		Message:  "Zone started",
		ZoneID:   zoneID,
		ZoneName: h.zoneName(zoneID),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write start response", err))
	}
}

// HandleStopZone stops a zone.
func (h *ZoneHandlers) HandleStopZone(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := pathZoneID(r)
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("zone id must be an integer"))
		return
	}

	if err := h.engine.StopZone(r.Context(), zoneID); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := &responses.ZoneActionResponse{
		Success:  true,
		Message:  "Zone stopped",
		ZoneID:   zoneID,
		ZoneName: h.zoneName(zoneID),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write stop response", err))
	}
}

// HandleGetRainDelay returns the current rain delay state.
func (h *ZoneHandlers) HandleGetRainDelay(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status(r.Context())
	resp := &responses.RainDelayResponse{
		RainDelay: st.RainDelay,
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write rain delay response", err))
	}
}

// HandleSetRainDelay replaces the rain delay state.
func (h *ZoneHandlers) HandleSetRainDelay(w http.ResponseWriter, r *http.Request) {
	var req responses.RainDelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid request body"))
		return
	}
	if req.Active && req.ExpiresAt == nil && req.Hours <= 0 {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.ValidationFailed("hours", "hours or expires_at required when activating"))
		return
	}

	delay := h.engine.SetRainDelay(req.Active, req.ExpiresAt, req.Hours)
	resp := &responses.RainDelayResponse{
		RainDelay: delay,
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write rain delay response", err))
	}
}

func (h *ZoneHandlers) zoneName(zoneID int) string {
	for _, z := range h.engine.Zones() {
		if z.ID == zoneID {
			return z.Name
		}
	}
	return ""
}
