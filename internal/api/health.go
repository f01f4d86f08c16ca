package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports backing-store liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// HealthHandler handles GET /health
func (h *Handler) HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:   "ok",
			Database: "ok",
			Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		}
		status := http.StatusOK

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				h.logger.Error("health check failed", "error", err)
				resp.Status = "degraded"
				resp.Database = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, h.logger, status, resp)
	}
}
