package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/studioops/videopilot/internal/ai"
	mw "github.com/studioops/videopilot/internal/api/middleware"
	"github.com/studioops/videopilot/internal/api/response"
	"github.com/studioops/videopilot/internal/pipeline"
)

// AutoPilotRunner executes one auto-pilot pass.
type AutoPilotRunner interface {
	Run(ctx context.Context, userID uuid.UUID, kind string) (*pipeline.AutoPilotResult, error)
}

// NewAutoPilotHandler returns an http.HandlerFunc for POST /api/v1/autopilot.
// The run is synchronous: the response reports how many slots were filled and
// which submissions failed.
func NewAutoPilotHandler(runner AutoPilotRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Kind string `json:"kind"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Kind != pipeline.AutoPilotShorts && req.Kind != pipeline.AutoPilotLongs {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"kind must be shorts or longs", nil)
			return
		}

		result, err := runner.Run(r.Context(), userID, req.Kind)
		if err != nil {
			switch {
			case errors.Is(err, ai.ErrProviderUnavailable):
				response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
					"The AI provider is not available", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"Auto-pilot run failed", nil)
			}
			return
		}

		response.JSON(w, result)
	}
}
