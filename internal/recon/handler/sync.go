package handler

import (
	"net/http"

	"github.com/shiftline/shiftline-backend/internal/recon/service"
	"github.com/shiftline/shiftline-backend/pkg/httputil"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// SyncHandler exposes the snapshot and the manual sync controls
type SyncHandler struct {
	engine *service.Engine
	logger *logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(engine *service.Engine, log *logger.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, logger: log}
}

// Data serves the full snapshot. Peers and the remote authority both
// read this shape.
func (h *SyncHandler) Data(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.engine.Snapshot())
}

// Push forces a full push to the remote authority. The outcome is
// always 200; the body says whether the remote accepted it.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	result := h.engine.ForceSyncToBackend(r.Context())
	httputil.JSON(w, http.StatusOK, result)
}

// Load replaces the local snapshot with the remote one
func (h *SyncHandler) Load(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ForceLoadFromBackend(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, h.engine.Snapshot())
}

// Health reports engine readiness
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Ready() {
		httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
		return
	}
	snap := h.engine.Snapshot()
	httputil.JSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"employees": len(snap.Employees),
		"records":   len(snap.AttendanceRecords),
		"version":   snap.Version,
	})
}
