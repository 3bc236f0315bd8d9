package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/server/responses"
	"github.com/JoeyEinTX/aquamind/internal/version"
)

// MonitoringHandlers contains health and readiness HTTP handlers.
type MonitoringHandlers struct {
	engine       EngineInterface
	startTime    time.Time
	relayMode    string
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(eng EngineInterface, startTime time.Time, relayMode string) *MonitoringHandlers {
	return &MonitoringHandlers{
		engine:       eng,
		startTime:    startTime,
		relayMode:    relayMode,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    version.Version,
		Uptime:     time.Since(h.startTime).Seconds(),
		RelayMode:  h.relayMode,
		ZonesTotal: len(h.engine.Zones()),
	}
	if err := writeJSON(w, http.StatusOK, health); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.InternalError("failed to write health response", err))
	}
}

// HandleReadiness reports ready once the engine is constructed; the
// engine loads its snapshot and resets relays before serving starts.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
