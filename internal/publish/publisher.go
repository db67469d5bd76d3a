package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/internal/assets"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// videoStore is the slice of the data layer the publisher needs.
type videoStore interface {
	ListVideosByStatus(ctx context.Context, status string) ([]*models.Video, error)
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string, opts ...store.VideoUpdateOption) error
}

// Publisher promotes scheduled videos to published once their suggested
// upload time passes. It uploads the stored media to the remote target and
// flips the record; a failed upload stays scheduled and is retried on the
// next sweep.
type Publisher struct {
	store    videoStore
	assets   assets.Store
	uploader Uploader
	interval time.Duration

	now func() time.Time
}

// NewPublisher creates a new Publisher.
func NewPublisher(st videoStore, as assets.Store, uploader Uploader, interval time.Duration) *Publisher {
	return &Publisher{store: st, assets: as, uploader: uploader, interval: interval, now: time.Now}
}

// Run blocks until ctx is cancelled, sweeping at the configured interval.
func (p *Publisher) Run(ctx context.Context) {
	slog.Info("publisher started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("publisher stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Publisher) sweep(ctx context.Context) {
	videos, err := p.store.ListVideosByStatus(ctx, models.VideoStatusScheduled)
	if err != nil {
		slog.Error("listing scheduled videos", "error", err)
		return
	}

	now := p.now().UTC()
	for _, video := range videos {
		if video.SuggestedUploadTime == nil || video.SuggestedUploadTime.After(now) {
			continue
		}
		if err := p.publish(ctx, video); err != nil {
			slog.Error("publishing video", "video_id", video.ID, "error", err)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, video *models.Video) error {
	media, err := p.assets.Fetch(ctx, fmt.Sprintf("videos/%s.mp4", video.ID))
	if err != nil {
		return fmt.Errorf("fetching media: %w", err)
	}

	// The thumbnail task may still be pending; publish without one rather
	// than holding the upload.
	var thumbnail []byte
	if video.ThumbnailURL != nil && *video.ThumbnailURL != "" {
		thumbnail, err = p.assets.Fetch(ctx, fmt.Sprintf("thumbnails/%s.png", video.ID))
		if err != nil {
			slog.Warn("fetching thumbnail failed", "video_id", video.ID, "error", err)
			thumbnail = nil
		}
	}

	remoteID, err := p.uploader.UploadVideo(ctx, video, media, thumbnail)
	if err != nil {
		return fmt.Errorf("uploading: %w", err)
	}

	if err := p.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusPublished); err != nil {
		return fmt.Errorf("marking published: %w", err)
	}

	slog.Info("video published", "video_id", video.ID, "youtube_id", remoteID)
	return nil
}
