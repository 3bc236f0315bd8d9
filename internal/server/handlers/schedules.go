package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
	"github.com/JoeyEinTX/aquamind/internal/state"
)

// ScheduleHandlers contains the schedule CRUD HTTP handlers.
type ScheduleHandlers struct {
	engine       EngineInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewScheduleHandlers creates a new schedule handlers instance.
func NewScheduleHandlers(eng EngineInterface) *ScheduleHandlers {
	return &ScheduleHandlers{
		engine:       eng,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleList returns all schedules.
func (h *ScheduleHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	resp := &responses.SchedulesResponse{
		Schedules: h.engine.Schedules(),
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write schedules response", err))
	}
}

// HandleCreate creates a schedule.
func (h *ScheduleHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSchedule(w, r)
	if !ok {
		return
	}

	created, err := h.engine.CreateSchedule(req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, created); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write schedule response", err))
	}
}

// HandleUpdate replaces a schedule's mutable fields.
func (h *ScheduleHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSchedule(w, r)
	if !ok {
		return
	}

	updated, err := h.engine.UpdateSchedule(r.PathValue("id"), req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, updated); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write schedule response", err))
	}
}

// HandleDelete removes a schedule.
func (h *ScheduleHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSchedule(r.PathValue("id")); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandlers) decodeSchedule(w http.ResponseWriter, r *http.Request) (state.Schedule, bool) {
	var req responses.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid request body"))
		return state.Schedule{}, false
	}
	return state.Schedule{
		ZoneID:      req.ZoneID,
		StartTime:   req.StartTime,
		DaysOfWeek:  req.DaysOfWeek,
		DurationSec: req.DurationSec,
		Enabled:     req.Enabled,
	}, true
}
