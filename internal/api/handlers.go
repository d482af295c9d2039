package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	syncer "github.com/galaxyhub/firmtrack/internal/sync"
	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// triggerDeviceSync starts a catalog refresh in the background. A pass
// already in flight is rejected with 409.
func (s *Server) triggerDeviceSync(w http.ResponseWriter, _ *http.Request) {
	if s.syncer.InFlight() {
		writeError(w, http.StatusConflict, "synchronization already in flight")
		return
	}
	go func() {
		if err := s.syncer.SyncDevices(s.baseCtx); err != nil && !errors.Is(err, syncer.ErrSyncInFlight) {
			s.logger.Error("device sync failed", zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "flow": "devices"})
}

func (s *Server) triggerBuildSync(kind tracker.BuildKind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if s.syncer.InFlight() {
			writeError(w, http.StatusConflict, "synchronization already in flight")
			return
		}
		go func() {
			if err := s.syncer.SyncBuilds(s.baseCtx, kind); err != nil && !errors.Is(err, syncer.ErrSyncInFlight) {
				s.logger.Error("build sync failed", zap.String("kind", string(kind)), zap.Error(err))
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "flow": string(kind)})
	}
}

// searchDevices handles GET /v1/devices?q=. An empty query is rejected so a
// stray request cannot dump the whole catalog.
func (s *Server) searchDevices(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q required")
		return
	}
	devices, err := s.store.SearchDevices(r.Context(), query)
	if err != nil {
		s.logger.Error("device search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to search devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseDeviceID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dev, err := s.store.GetDevice(r.Context(), id)
	if err != nil {
		s.logger.Error("get device failed", zap.Int("device_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load device")
		return
	}
	if dev == nil {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": dev})
}

func (s *Server) getSpecs(w http.ResponseWriter, r *http.Request) {
	id, err := parseDeviceID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	specs, err := s.store.GetSpecs(r.Context(), id)
	if err != nil {
		s.logger.Error("get specs failed", zap.Int("device_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load specs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"specs": specs})
}

func (s *Server) getRegions(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	regions, err := s.store.RegionsByModel(r.Context(), model)
	if err != nil {
		s.logger.Error("get regions failed", zap.String("model", model), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load regions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": model, "regions": regions})
}

func parseDeviceID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "device_id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New("device_id must be a positive integer")
	}
	return id, nil
}
