// Package httpserver wires the HTTP surface: the public control API on
// one port and the admin surface (health, metrics) on another.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JoeyEinTX/aquamind/internal/config"
	derrors "github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/metrics"
	"github.com/JoeyEinTX/aquamind/internal/server/handlers"
	smw "github.com/JoeyEinTX/aquamind/internal/server/middleware"
)

// Options carries optional server dependencies.
type Options struct {
	// PrometheusRegistry enables the /metrics endpoint when non-nil.
	PrometheusRegistry *prometheus.Registry

	// RelayMode is reported by the health endpoint.
	RelayMode string

	// StartTime anchors uptime reporting; zero means now.
	StartTime time.Time
}

// Server manages the API and admin HTTP listeners.
type Server struct {
	apiServer   *http.Server
	adminServer *http.Server
	cfg         *config.Config
	opts        Options

	zoneHandlers       *handlers.ZoneHandlers
	scheduleHandlers   *handlers.ScheduleHandlers
	runHandlers        *handlers.RunHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	mchain func(http.Handler) http.Handler
}

// New constructs the HTTP server wiring.
func New(cfg *config.Config, eng handlers.EngineInterface, opts Options) *Server {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	s := &Server{
		cfg:  cfg,
		opts: opts,
	}
	s.zoneHandlers = handlers.NewZoneHandlers(eng)
	s.scheduleHandlers = handlers.NewScheduleHandlers(eng)
	s.runHandlers = handlers.NewRunHandlers(eng)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(eng, opts.StartTime, opts.RelayMode)
	s.mchain = smw.Chain(slog.Default(), derrors.NewHTTPErrorAdapter(slog.Default()))
	return s
}

// APIMux builds the public API routes. Exposed for handler tests.
func (s *Server) APIMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.zoneHandlers.HandleStatus)
	mux.HandleFunc("GET /api/zones", s.zoneHandlers.HandleListZones)
	mux.HandleFunc("POST /api/zones/{id}/start", s.zoneHandlers.HandleStartZone)
	mux.HandleFunc("POST /api/zones/{id}/stop", s.zoneHandlers.HandleStopZone)
	mux.HandleFunc("GET /api/schedules", s.scheduleHandlers.HandleList)
	mux.HandleFunc("POST /api/schedules", s.scheduleHandlers.HandleCreate)
	mux.HandleFunc("PUT /api/schedules/{id}", s.scheduleHandlers.HandleUpdate)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleHandlers.HandleDelete)
	mux.HandleFunc("GET /api/rain-delay", s.zoneHandlers.HandleGetRainDelay)
	mux.HandleFunc("PUT /api/rain-delay", s.zoneHandlers.HandleSetRainDelay)
	mux.HandleFunc("GET /api/runs", s.runHandlers.HandleList)
	return mux
}

func (s *Server) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("GET /ready", s.monitoringHandlers.HandleReadiness)
	mux.HandleFunc("GET /readyz", s.monitoringHandlers.HandleReadiness)
	if s.opts.PrometheusRegistry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.opts.PrometheusRegistry))
	}
	return mux
}

// Start pre-binds both ports before serving so a conflict surfaces as
// one aggregate error instead of partial startup.
func (s *Server) Start(ctx context.Context) error {
	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{
		{name: "api", port: s.cfg.HTTP.APIPort},
		{name: "admin", port: s.cfg.HTTP.AdminPort},
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", binds[i].port))
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.apiServer = &http.Server{
		Handler:      s.mchain(s.APIMux()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.adminServer = &http.Server{
		Handler:      s.mchain(s.adminMux()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.serveOn("api", s.apiServer, binds[0].ln)
	s.serveOn("admin", s.adminServer, binds[1].ln)

	slog.Info("HTTP servers started",
		slog.Int("api_port", s.cfg.HTTP.APIPort),
		slog.Int("admin_port", s.cfg.HTTP.AdminPort))
	return nil
}

// Stop gracefully shuts down both servers.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.apiServer != nil {
		if err := s.apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	slog.Info("HTTP servers stopped")
	return nil
}

func (s *Server) serveOn(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
}
