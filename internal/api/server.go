// Package api exposes the HTTP interface for the tracker service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// SyncRunner triggers synchronization passes. Satisfied by sync.Syncer.
type SyncRunner interface {
	SyncDevices(ctx context.Context) error
	SyncBuilds(ctx context.Context, kind tracker.BuildKind) error
	InFlight() bool
}

// Server wires HTTP handlers to the catalog store and the syncer.
type Server struct {
	router chi.Router
	store  tracker.Store
	syncer SyncRunner
	logger *zap.Logger

	// baseCtx owns background sync passes so they outlive the request.
	baseCtx context.Context
}

// NewServer constructs a Server with middleware and routes.
func NewServer(baseCtx context.Context, store tracker.Store, syncer SyncRunner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:   store,
		syncer:  syncer,
		logger:  logger,
		baseCtx: baseCtx,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sync", func(r chi.Router) {
			r.Post("/devices", s.triggerDeviceSync)
			r.Post("/firmware", s.triggerBuildSync(tracker.BuildFirmware))
			r.Post("/kernels", s.triggerBuildSync(tracker.BuildKernel))
		})
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.searchDevices)
			r.Route("/{device_id}", func(r chi.Router) {
				r.Get("/", s.getDevice)
				r.Get("/specs", s.getSpecs)
			})
		})
		r.Get("/models/{model}/regions", s.getRegions)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
