package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studioops/videopilot/internal/assets"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// TaskWorker drains the persisted task queue. Claims go through the store's
// locking query, so multiple workers can run against the same database
// without processing a task twice.
type TaskWorker struct {
	store       store.Store
	provider    models.AIProvider
	assets      assets.Store
	interval    time.Duration
	maxAttempts int
}

// NewTaskWorker creates a new TaskWorker.
func NewTaskWorker(st store.Store, provider models.AIProvider, as assets.Store, interval time.Duration, maxAttempts int) *TaskWorker {
	return &TaskWorker{store: st, provider: provider, assets: as, interval: interval, maxAttempts: maxAttempts}
}

// Run blocks until ctx is cancelled. Each tick drains every pending task
// before sleeping again.
func (w *TaskWorker) Run(ctx context.Context) {
	slog.Info("task worker started", "interval", w.interval, "max_attempts", w.maxAttempts)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("task worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *TaskWorker) drain(ctx context.Context) {
	for {
		task, err := w.store.ClaimNextTask(ctx, models.TaskTypeThumbnail)
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		if err != nil {
			slog.Error("claiming task", "error", err)
			return
		}
		if requeued := w.process(ctx, task); requeued {
			// A requeued task would be claimed right back by this loop, so
			// leave retries for the next tick.
			return
		}
	}
}

// process runs one claimed task and reports whether it was requeued for retry.
func (w *TaskWorker) process(ctx context.Context, task *models.Task) bool {
	err := w.generateThumbnail(ctx, task)
	if err == nil {
		if err := w.store.CompleteTask(ctx, task.ID); err != nil {
			slog.Error("completing task", "task_id", task.ID, "error", err)
		}
		return false
	}

	// Attempts already includes this claim.
	retry := task.Attempts < w.maxAttempts
	slog.Error("thumbnail task failed",
		"task_id", task.ID,
		"video_id", task.VideoID,
		"attempt", task.Attempts,
		"retry", retry,
		"error", err,
	)
	if err := w.store.FailTask(ctx, task.ID, err.Error(), retry); err != nil {
		slog.Error("recording task failure", "task_id", task.ID, "error", err)
		return false
	}
	return retry
}

func (w *TaskWorker) generateThumbnail(ctx context.Context, task *models.Task) error {
	video, err := w.store.GetVideo(ctx, task.VideoID)
	if err != nil {
		return fmt.Errorf("loading video: %w", err)
	}

	data, err := w.provider.GenerateThumbnail(ctx, models.ThumbnailRequest{
		VideoID: video.ID.String(),
		Topic:   video.Topic,
		Script:  video.Script,
		Title:   video.Title,
	})
	if err != nil {
		return fmt.Errorf("generating thumbnail: %w", err)
	}

	url, err := w.assets.Upload(ctx, fmt.Sprintf("thumbnails/%s.png", video.ID), data, "image/png")
	if err != nil {
		return fmt.Errorf("uploading thumbnail: %w", err)
	}

	if err := w.store.SetThumbnailURL(ctx, video.ID, url); err != nil {
		return fmt.Errorf("saving thumbnail url: %w", err)
	}

	slog.Info("thumbnail generated", "video_id", video.ID, "url", url)
	return nil
}
