package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/clinsync/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// DatabasePinger is satisfied by *mongo.Client.
type DatabasePinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// BackendPinger is satisfied by *apiclient.Client.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB      DatabasePinger
	Backend BackendPinger
	Log     *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(db DatabasePinger, backend BackendPinger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Backend: backend,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backend  string `json:"backend"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "backend":"reachable" }
//
// When only the trial backend is down: 200 with status "degraded".
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Backend:  "reachable",
	}

	if err := h.DB.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Backend = "unknown"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// The backend is informational; pages that need it report their own errors.
	if h.Backend != nil {
		if err := h.Backend.Ping(ctx); err != nil {
			h.Log.Warn("health-check: backend ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Backend = "unreachable"
			resp.Message = "Trial backend unavailable"
			resp.Error = err.Error()
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
