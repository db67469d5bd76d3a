// Package pipeline contains the video-generation orchestration: job
// submission, status reconciliation against the render service, auto-pilot
// scheduling, and the background workers driving them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/internal/cache"
	"github.com/studioops/videopilot/internal/renderer"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// Synthesized fallbacks for user-supplied scripts that skip generation.
const (
	customScriptTopic = "Custom Script"
	untitledFallback  = "Untitled"
)

// SubmitParams holds the inputs for a new video submission. Script is
// optional; when set, generation is skipped and the script is used verbatim.
type SubmitParams struct {
	UserID         uuid.UUID
	Length         string
	Playlist       string
	Topic          string
	Title          string
	InspirationURL string
	Script         string
}

// SubmitResult is returned to the caller before rendering completes. Callers
// must not assume the video is ready; they observe progress by polling.
type SubmitResult struct {
	VideoID        uuid.UUID
	OptimizedTitle string
}

// VideoCreator is the submission seam the auto-pilot and handlers depend on.
type VideoCreator interface {
	CreateAndProcessVideo(ctx context.Context, params SubmitParams) (*SubmitResult, error)
}

// Submitter creates video records and kicks off the first async stage.
type Submitter struct {
	store    store.Store
	cache    cache.Cache
	provider models.AIProvider
	renderer renderer.Client
	opTTL    time.Duration
}

// NewSubmitter creates a new Submitter.
func NewSubmitter(st store.Store, ca cache.Cache, provider models.AIProvider, rc renderer.Client, opTTL time.Duration) *Submitter {
	return &Submitter{store: st, cache: ca, provider: provider, renderer: rc, opTTL: opTTL}
}

// CreateAndProcessVideo generates (or accepts) a script, optimizes its
// metadata, submits the render operation, and persists the new record in
// processing state. Any failure along the way surfaces as ErrCreationFailed
// and leaves nothing persisted.
func (s *Submitter) CreateAndProcessVideo(ctx context.Context, params SubmitParams) (*SubmitResult, error) {
	if params.Length != models.VideoLengthShort && params.Length != models.VideoLengthLong {
		return nil, fmt.Errorf("%w: invalid length %q", ErrCreationFailed, params.Length)
	}

	var title, topic, script string
	if params.Script != "" {
		script = params.Script
		topic = customScriptTopic
		title = params.Title
		if title == "" {
			title = untitledFallback
		}
	} else {
		res, err := s.provider.GenerateScript(ctx, models.ScriptRequest{
			Length:         params.Length,
			Topic:          params.Topic,
			Title:          params.Title,
			InspirationURL: params.InspirationURL,
		})
		if err != nil {
			// Both sentinels stay inspectable: the handler distinguishes a
			// provider timeout from a generic creation failure.
			return nil, fmt.Errorf("%w: generating script: %w", ErrCreationFailed, err)
		}
		title, topic, script = res.Title, res.Topic, res.Script
	}

	// Metadata optimization is mandatory even for user-supplied scripts so
	// every record carries uniform downstream metadata.
	meta, err := s.provider.OptimizeMetadata(ctx, models.MetadataRequest{
		Title:  title,
		Script: script,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: optimizing metadata: %w", ErrCreationFailed, err)
	}

	videoID := uuid.New()

	operationName, err := s.submitRender(ctx, script, videoID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	video := &models.Video{
		ID:                   videoID,
		UserID:               params.UserID,
		Title:                title,
		Topic:                topic,
		Script:               script,
		Length:               params.Length,
		Status:               models.VideoStatusProcessing,
		OptimizedTitle:       meta.OptimizedTitle,
		OptimizedDescription: meta.OptimizedDescription,
		OptimizedTags:        meta.OptimizedTags,
		OptimizedCategory:    meta.OptimizedCategory,
		SuggestedUploadTime:  parseSuggestedUploadTime(meta.SuggestedUploadTime),
		OperationName:        &operationName,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if params.Playlist != "" {
		video.Playlist = &params.Playlist
	}

	if err := s.store.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("%w: persisting record: %v", ErrCreationFailed, err)
	}

	slog.Info("video submitted",
		"video_id", videoID,
		"user_id", params.UserID,
		"length", params.Length,
		"operation", operationName,
	)

	return &SubmitResult{VideoID: videoID, OptimizedTitle: meta.OptimizedTitle}, nil
}

// Retry re-submits a failed video's original script as a fresh render attempt
// and resets the record to processing. The straggling original operation, if
// any, is never cancelled; its descriptor simply ages out.
func (s *Submitter) Retry(ctx context.Context, videoID, userID uuid.UUID) error {
	video, err := s.store.GetUserVideo(ctx, videoID, userID)
	if err != nil {
		return err
	}
	if video.Status != models.VideoStatusFailed {
		return fmt.Errorf("%w: status is %s", ErrNotRetryable, video.Status)
	}

	operationName, err := s.submitRender(ctx, video.Script, video.ID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusProcessing,
		store.WithOperationName(operationName)); err != nil {
		return fmt.Errorf("resetting video to processing: %w", err)
	}

	slog.Info("video retry submitted", "video_id", video.ID, "operation", operationName)
	return nil
}

func (s *Submitter) submitRender(ctx context.Context, script string, videoID uuid.UUID) (string, error) {
	operationName, err := s.renderer.Submit(ctx, script, videoID)
	if err != nil {
		return "", fmt.Errorf("%w: submitting render: %v", ErrCreationFailed, err)
	}

	op := &models.Operation{
		Name:        operationName,
		Done:        false,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.cache.PutOperation(ctx, op, s.opTTL); err != nil {
		// Without a descriptor the video can never resolve, so surface the
		// failure now rather than persisting a record doomed to fail.
		return "", fmt.Errorf("%w: storing operation descriptor: %v", ErrCreationFailed, err)
	}
	return operationName, nil
}

func parseSuggestedUploadTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		slog.Warn("ignoring unparseable suggested upload time", "value", raw)
		return nil
	}
	t = t.UTC()
	return &t
}

var _ VideoCreator = (*Submitter)(nil)
