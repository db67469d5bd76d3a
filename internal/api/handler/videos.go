// Package handler contains the HTTP handlers for the VideoPilot API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/studioops/videopilot/internal/ai"
	mw "github.com/studioops/videopilot/internal/api/middleware"
	"github.com/studioops/videopilot/internal/api/response"
	"github.com/studioops/videopilot/internal/pipeline"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// VideoRetrier re-submits a failed video.
type VideoRetrier interface {
	Retry(ctx context.Context, videoID, userID uuid.UUID) error
}

// NewCreateVideoHandler returns an http.HandlerFunc for POST /api/v1/videos.
// Creation is synchronous up to render submission; the response reports the
// new record in processing state.
func NewCreateVideoHandler(creator pipeline.VideoCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Length         string `json:"length"`
			Topic          string `json:"topic"`
			Title          string `json:"title"`
			Playlist       string `json:"playlist"`
			InspirationURL string `json:"inspiration_url"`
			Script         string `json:"script"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Length != models.VideoLengthShort && req.Length != models.VideoLengthLong {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"length must be short or long", nil)
			return
		}

		result, err := creator.CreateAndProcessVideo(r.Context(), pipeline.SubmitParams{
			UserID:         userID,
			Length:         req.Length,
			Topic:          req.Topic,
			Title:          req.Title,
			Playlist:       req.Playlist,
			InspirationURL: req.InspirationURL,
			Script:         req.Script,
		})
		if err != nil {
			switch {
			case errors.Is(err, ai.ErrProviderUnavailable):
				response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
					"The AI provider is not available", nil)
			case errors.Is(err, ai.ErrInferenceTimeout):
				response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
					"AI generation took too long and was cancelled", nil)
			case errors.Is(err, pipeline.ErrCreationFailed):
				response.Error(w, http.StatusBadGateway, "VIDEO_CREATION_FAILED",
					"Video creation failed; nothing was persisted", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, map[string]any{
			"video_id":        result.VideoID,
			"optimized_title": result.OptimizedTitle,
			"status":          models.VideoStatusProcessing,
		})
	}
}

// NewListVideosHandler returns an http.HandlerFunc for GET /api/v1/videos.
func NewListVideosHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		filter := store.VideoFilter{
			UserID:   userID,
			Status:   r.URL.Query().Get("status"),
			Length:   r.URL.Query().Get("length"),
			Playlist: r.URL.Query().Get("playlist"),
			Page:     queryInt(r, "page", 1),
			Limit:    queryInt(r, "limit", defaultPageLimit),
		}
		if filter.Page < 1 {
			filter.Page = 1
		}
		if filter.Limit < 1 {
			filter.Limit = defaultPageLimit
		}
		if filter.Limit > maxPageLimit {
			filter.Limit = maxPageLimit
		}

		videos, total, err := st.ListVideos(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list videos", nil)
			return
		}
		if videos == nil {
			videos = []*models.Video{}
		}

		response.Collection(w, videos, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewGetVideoHandler returns an http.HandlerFunc for GET /api/v1/videos/{videoID}.
func NewGetVideoHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid video ID", nil)
			return
		}

		video, err := st.GetUserVideo(r.Context(), videoID, userID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Video not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load video", nil)
			return
		}

		response.JSON(w, video)
	}
}

// NewVideoStatusHandler returns an http.HandlerFunc for
// GET /api/v1/videos/{videoID}/status. Checking status also advances the
// record: a completed render is materialized on the spot rather than waiting
// for the background poller.
func NewVideoStatusHandler(st store.Store, checker pipeline.StatusChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid video ID", nil)
			return
		}

		// Ownership check before touching pipeline state.
		if _, err := st.GetUserVideo(r.Context(), videoID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Video not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load video", nil)
			return
		}

		result, err := checker.CheckVideoStatus(r.Context(), videoID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to check video status", nil)
			return
		}

		response.JSON(w, result)
	}
}

// NewRetryVideoHandler returns an http.HandlerFunc for
// POST /api/v1/videos/{videoID}/retry.
func NewRetryVideoHandler(retrier VideoRetrier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid video ID", nil)
			return
		}

		err = retrier.Retry(r.Context(), videoID, userID)
		switch {
		case err == nil:
			response.Accepted(w, map[string]any{
				"video_id": videoID,
				"status":   models.VideoStatusProcessing,
			})
		case errors.Is(err, store.ErrNotFound):
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Video not found", nil)
		case errors.Is(err, pipeline.ErrNotRetryable):
			response.Error(w, http.StatusConflict, "NOT_RETRYABLE",
				"Only failed videos can be retried", nil)
		case errors.Is(err, pipeline.ErrCreationFailed):
			response.Error(w, http.StatusBadGateway, "VIDEO_CREATION_FAILED",
				"Retry submission failed; the video remains failed", nil)
		default:
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
		}
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
