package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/studioops/videopilot/internal/api/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health. Each
// named dependency is pinged with a short deadline; the endpoint reports 503
// when any of them is down.
func NewHealthHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		healthy := true
		checks := make(map[string]string, len(deps))
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		body := map[string]any{
			"status": "ok",
			"checks": checks,
		}
		if !healthy {
			body["status"] = "degraded"
			response.Error(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
				"One or more dependencies are unavailable", checks)
			return
		}

		response.JSON(w, body)
	}
}
