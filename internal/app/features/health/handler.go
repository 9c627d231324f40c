// Package health exposes the liveness endpoint used by load balancers
// and uptime checks.
package health

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Store   docstore.Store
	Version string
	Log     *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(store docstore.Store, version string, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Version: version, Log: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "store":"connected", "version":"1.2.0" }
//
// On store failure: 503 and
//
//	{ "status":"error", "store":"disconnected", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health check")
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		Store:   "connected",
		Version: h.Version,
	}

	// A cheap scoped read doubles as the connectivity probe; the
	// document store has no dedicated ping.
	if _, err := h.Store.List(ctx, docstore.Members, docstore.Query{Limit: 1}); err != nil {
		h.Log.Error("health check: store probe failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Store = "disconnected"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
