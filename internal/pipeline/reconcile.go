package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/internal/assets"
	"github.com/studioops/videopilot/internal/cache"
	"github.com/studioops/videopilot/internal/renderer"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// Poller-facing statuses. Internal video states collapse into these four.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusNotFound   = "not_found"
)

// StatusResult is the well-formed answer every status check produces.
// Failures inside the materialization sequence are downgraded to a failed
// status write; they never propagate as errors to the poller.
type StatusResult struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
}

// Reconciler advances processing videos by polling their render operations and
// materializing assets once the remote operation completes.
type Reconciler struct {
	store    store.Store
	cache    cache.Cache
	provider models.AIProvider
	renderer renderer.Client
	assets   assets.Store
	opTTL    time.Duration
}

// NewReconciler creates a new Reconciler.
func NewReconciler(st store.Store, ca cache.Cache, provider models.AIProvider, rc renderer.Client, as assets.Store, opTTL time.Duration) *Reconciler {
	return &Reconciler{store: st, cache: ca, provider: provider, renderer: rc, assets: as, opTTL: opTTL}
}

// CheckVideoStatus reconciles one video against its render operation. It is
// idempotent and safe to call concurrently for the same ID: the materializing
// claim guarantees at most one caller runs the asset-upload sequence.
func (r *Reconciler) CheckVideoStatus(ctx context.Context, videoID uuid.UUID) (StatusResult, error) {
	video, err := r.store.GetVideo(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return StatusResult{Status: StatusNotFound}, nil
	}
	if err != nil {
		return StatusResult{}, fmt.Errorf("loading video: %w", err)
	}

	// Terminal records short-circuit without touching the remote operation.
	if video.Terminal() {
		res := StatusResult{Status: StatusCompleted}
		if video.VideoURL != nil {
			res.VideoURL = *video.VideoURL
		}
		return res, nil
	}

	switch video.Status {
	case models.VideoStatusFailed:
		return StatusResult{Status: StatusFailed}, nil
	case models.VideoStatusMaterializing:
		// Another reconciliation call holds the claim; report progress and let
		// the next poll observe its outcome.
		return StatusResult{Status: StatusProcessing}, nil
	}

	if video.OperationName == nil || *video.OperationName == "" {
		return r.markFailed(ctx, video.ID, "no render operation reference"), nil
	}

	op, found, err := r.cache.GetOperation(ctx, *video.OperationName)
	if err != nil {
		return StatusResult{}, fmt.Errorf("loading operation descriptor: %w", err)
	}
	if !found {
		// The descriptor aged out before the operation completed.
		return r.markFailed(ctx, video.ID, "render operation expired"), nil
	}

	if !op.Done {
		remote, err := r.renderer.Poll(ctx, op.Name)
		if err != nil {
			// Transient remote failure; leave the record alone and try again
			// on the next poll.
			slog.Warn("render poll failed", "video_id", video.ID, "operation", op.Name, "error", err)
			return StatusResult{Status: StatusProcessing}, nil
		}

		op.Done = remote.Done
		op.Error = remote.Error
		op.MediaURL = remote.MediaURL

		// Preserve the original expiry: the descriptor lives a fixed window
		// from submission, not from the last poll.
		remaining := r.opTTL - time.Since(op.SubmittedAt)
		if remaining <= 0 {
			return r.markFailed(ctx, video.ID, "render operation expired"), nil
		}
		if err := r.cache.PutOperation(ctx, op, remaining); err != nil {
			slog.Warn("updating operation descriptor failed", "operation", op.Name, "error", err)
		}

		if !op.Done {
			return StatusResult{Status: StatusProcessing}, nil
		}
	}

	if op.Error != "" {
		return r.markFailed(ctx, video.ID, "render failed: "+op.Error), nil
	}
	if op.MediaURL == "" {
		return r.markFailed(ctx, video.ID, "render completed without media"), nil
	}

	// Claim the materialization step. Losing the race is not an error; the
	// winner's outcome shows up on the next poll.
	claimed, err := r.store.ClaimVideo(ctx, video.ID, models.VideoStatusProcessing, models.VideoStatusMaterializing)
	if err != nil {
		return StatusResult{}, fmt.Errorf("claiming video: %w", err)
	}
	if !claimed {
		return StatusResult{Status: StatusProcessing}, nil
	}

	// A claimed record must resolve to a terminal or failed state even if the
	// caller disconnects mid-upload, so the sequence runs detached from
	// request cancellation. Otherwise the record would strand in the claim
	// state: no poller sweep picks it up and retry rejects it.
	return r.materialize(context.WithoutCancel(ctx), video, op.MediaURL), nil
}

// materialize uploads the rendered video, synthesizes and uploads narration
// audio, and writes both URLs plus the terminal status in one update. Any
// failure maps the record to failed; partial asset writes are acceptable but
// the status must never claim success it did not reach.
func (r *Reconciler) materialize(ctx context.Context, video *models.Video, mediaURL string) StatusResult {
	data, err := r.renderer.Download(ctx, mediaURL)
	if err != nil {
		return r.markFailed(ctx, video.ID, fmt.Sprintf("downloading render output: %v", err))
	}

	videoURL, err := r.assets.Upload(ctx, fmt.Sprintf("videos/%s.mp4", video.ID), data, "video/mp4")
	if err != nil {
		return r.markFailed(ctx, video.ID, fmt.Sprintf("storing video asset: %v", err))
	}

	audioData, err := r.provider.Synthesize(ctx, video.Script)
	if err != nil {
		return r.markFailed(ctx, video.ID, fmt.Sprintf("synthesizing narration: %v", err))
	}

	audioURL, err := r.assets.Upload(ctx, fmt.Sprintf("audio/%s.mp3", video.ID), audioData, "audio/mpeg")
	if err != nil {
		return r.markFailed(ctx, video.ID, fmt.Sprintf("storing audio asset: %v", err))
	}

	status := models.VideoStatusGenerated
	if video.SuggestedUploadTime != nil {
		status = models.VideoStatusScheduled
	}

	if err := r.store.CompleteVideo(ctx, video.ID, videoURL, audioURL, status); err != nil {
		return r.markFailed(ctx, video.ID, fmt.Sprintf("persisting assets: %v", err))
	}

	// Thumbnail generation is a persisted task with at-least-once delivery,
	// processed by the background task worker.
	now := time.Now().UTC()
	task := &models.Task{
		ID:        uuid.New(),
		VideoID:   video.ID,
		Type:      models.TaskTypeThumbnail,
		Status:    models.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateTask(ctx, task); err != nil {
		slog.Error("enqueueing thumbnail task failed", "video_id", video.ID, "error", err)
	}

	slog.Info("video materialized", "video_id", video.ID, "status", status)
	return StatusResult{Status: StatusCompleted, VideoURL: videoURL}
}

func (r *Reconciler) markFailed(ctx context.Context, videoID uuid.UUID, reason string) StatusResult {
	if err := r.store.UpdateVideoStatus(ctx, videoID, models.VideoStatusFailed,
		store.WithErrorMessage(reason)); err != nil {
		slog.Error("marking video failed", "video_id", videoID, "reason", reason, "error", err)
	} else {
		slog.Info("video failed", "video_id", videoID, "reason", reason)
	}
	return StatusResult{Status: StatusFailed}
}
