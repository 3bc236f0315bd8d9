package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/runlog"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
)

const defaultRunsPageSize = 50

// RunHandlers contains the run history HTTP handlers.
type RunHandlers struct {
	engine       EngineInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewRunHandlers creates a new run handlers instance.
func NewRunHandlers(eng EngineInterface) *RunHandlers {
	return &RunHandlers{
		engine:       eng,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleList returns the newest-first run history, paginated via limit
// and offset query parameters.
func (h *RunHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRunsPageSize)
	offset := queryInt(r, "offset", 0)

	all, err := h.engine.RunHistory(r.Context(), 0)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	page := paginate(all, offset, limit)
	resp := &responses.RunsResponse{
		Runs:      page,
		Total:     len(all),
		Limit:     limit,
		Offset:    offset,
		Timestamp: time.Now().UTC(),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write runs response", err))
	}
}

func paginate(entries []runlog.Entry, offset, limit int) []runlog.Entry {
	if offset >= len(entries) {
		return []runlog.Entry{}
	}
	end := offset + limit
	if limit <= 0 || end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}
