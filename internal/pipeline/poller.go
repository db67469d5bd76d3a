package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// StatusChecker is the reconciliation seam the poller drives.
type StatusChecker interface {
	CheckVideoStatus(ctx context.Context, videoID uuid.UUID) (StatusResult, error)
}

// staleClaimAge bounds how long a materializing claim may sit without progress
// before the poller writes it off. Asset materialization takes seconds; a
// claim this old belongs to a process that died mid-upload.
const staleClaimAge = 10 * time.Minute

// Poller periodically sweeps every processing video through the
// reconciliation engine so progress is made even when no client is polling
// the API.
type Poller struct {
	store    store.Store
	checker  StatusChecker
	interval time.Duration
}

// NewPoller creates a new Poller.
func NewPoller(st store.Store, checker StatusChecker, interval time.Duration) *Poller {
	return &Poller{store: st, checker: checker, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping at the configured interval.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("status poller started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("status poller stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	p.reclaimStaleClaims(ctx)

	videos, err := p.store.ListVideosByStatus(ctx, models.VideoStatusProcessing)
	if err != nil {
		slog.Error("listing processing videos", "error", err)
		return
	}
	if len(videos) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, video := range videos {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := p.checker.CheckVideoStatus(ctx, id); err != nil {
				slog.Error("reconciling video", "video_id", id, "error", err)
			}
		}(video.ID)
	}
	wg.Wait()
}

// reclaimStaleClaims fails materializing records whose claim has outlived
// staleClaimAge. The conditional status check in the update means a claim
// holder that is merely slow loses cleanly: its CompleteVideo will see the
// status change and report a conflict.
func (p *Poller) reclaimStaleClaims(ctx context.Context) {
	claimed, err := p.store.ListVideosByStatus(ctx, models.VideoStatusMaterializing)
	if err != nil {
		slog.Error("listing materializing videos", "error", err)
		return
	}

	for _, video := range claimed {
		if time.Since(video.UpdatedAt) < staleClaimAge {
			continue
		}
		err := p.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusFailed,
			store.WithErrorMessage("materialization interrupted"))
		if err != nil {
			slog.Error("reclaiming stale claim", "video_id", video.ID, "error", err)
			continue
		}
		slog.Warn("stale materializing claim failed", "video_id", video.ID,
			"claimed_at", video.UpdatedAt)
	}
}
