package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// Auto-pilot run kinds.
const (
	AutoPilotShorts = "shorts"
	AutoPilotLongs  = "longs"
)

// AutoPilotResult reports what a single auto-pilot run did. Submissions are
// independent, so a run can partially succeed; Errors holds one entry per
// failed slot.
type AutoPilotResult struct {
	Kind      string      `json:"kind"`
	Requested int         `json:"requested"`
	Created   []uuid.UUID `json:"created"`
	Errors    []string    `json:"errors,omitempty"`
}

// AutoPilot tops a user's output up to the configured production goals. It
// counts what already exists in the current window and submits only the
// deficit, so running it repeatedly within one window is safe.
type AutoPilot struct {
	store   store.Store
	creator VideoCreator
	series  models.SeriesStrategist

	dailyShortGoal int
	weeklyLongGoal int

	// now is swappable for tests pinning the quota window.
	now func() time.Time
}

// NewAutoPilot creates a new AutoPilot.
func NewAutoPilot(st store.Store, creator VideoCreator, series models.SeriesStrategist, dailyShortGoal, weeklyLongGoal int) *AutoPilot {
	return &AutoPilot{
		store:          st,
		creator:        creator,
		series:         series,
		dailyShortGoal: dailyShortGoal,
		weeklyLongGoal: weeklyLongGoal,
		now:            time.Now,
	}
}

// Run executes one auto-pilot pass of the given kind for a user. Quota
// lookups that fail abort the run; individual submission failures do not stop
// the remaining slots.
func (a *AutoPilot) Run(ctx context.Context, userID uuid.UUID, kind string) (*AutoPilotResult, error) {
	switch kind {
	case AutoPilotShorts:
		return a.runShorts(ctx, userID)
	case AutoPilotLongs:
		return a.runLongs(ctx, userID)
	default:
		return nil, fmt.Errorf("unknown auto-pilot kind %q", kind)
	}
}

func (a *AutoPilot) runShorts(ctx context.Context, userID uuid.UUID) (*AutoPilotResult, error) {
	from, to := dayWindow(a.now())
	existing, err := a.store.CountVideos(ctx, userID, models.VideoLengthShort, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting today's shorts: %w", err)
	}

	result := &AutoPilotResult{Kind: AutoPilotShorts, Requested: a.dailyShortGoal - existing}
	if result.Requested <= 0 {
		result.Requested = 0
		slog.Info("auto-pilot shorts goal already met", "user_id", userID, "existing", existing)
		return result, nil
	}

	for i := 0; i < result.Requested; i++ {
		res, err := a.creator.CreateAndProcessVideo(ctx, SubmitParams{
			UserID: userID,
			Length: models.VideoLengthShort,
		})
		if err != nil {
			slog.Error("auto-pilot short submission failed", "user_id", userID, "error", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Created = append(result.Created, res.VideoID)
	}

	slog.Info("auto-pilot shorts run finished",
		"user_id", userID,
		"requested", result.Requested,
		"created", len(result.Created),
		"failed", len(result.Errors),
	)
	return result, nil
}

func (a *AutoPilot) runLongs(ctx context.Context, userID uuid.UUID) (*AutoPilotResult, error) {
	from, to := weekWindow(a.now())
	existing, err := a.store.CountVideos(ctx, userID, models.VideoLengthLong, from, to)
	if err != nil {
		return nil, fmt.Errorf("counting this week's longs: %w", err)
	}

	result := &AutoPilotResult{Kind: AutoPilotLongs, Requested: a.weeklyLongGoal - existing}
	if result.Requested <= 0 {
		result.Requested = 0
		slog.Info("auto-pilot longs goal already met", "user_id", userID, "existing", existing)
		return result, nil
	}

	playlists, err := a.store.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	suggestion, err := a.series.SuggestSeries(ctx, playlists)
	if err != nil {
		return nil, fmt.Errorf("suggesting series: %w", err)
	}

	nextPart := 1
	if !suggestion.IsNewSeries {
		count, err := a.store.CountPlaylistVideos(ctx, userID, suggestion.Playlist)
		if err != nil {
			return nil, fmt.Errorf("counting playlist videos: %w", err)
		}
		nextPart = count + 1
	}

	for i := 0; i < result.Requested; i++ {
		res, err := a.creator.CreateAndProcessVideo(ctx, SubmitParams{
			UserID:   userID,
			Length:   models.VideoLengthLong,
			Playlist: suggestion.Playlist,
			Topic:    suggestion.Topic,
			Title:    fmt.Sprintf("%s - Part %d", suggestion.Topic, nextPart+i),
		})
		if err != nil {
			slog.Error("auto-pilot long submission failed", "user_id", userID, "error", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Created = append(result.Created, res.VideoID)
	}

	slog.Info("auto-pilot longs run finished",
		"user_id", userID,
		"playlist", suggestion.Playlist,
		"requested", result.Requested,
		"created", len(result.Created),
		"failed", len(result.Errors),
	)
	return result, nil
}

// dayWindow returns the inclusive bounds of the local calendar day containing t.
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// weekWindow returns the inclusive bounds of the Sunday-aligned week containing t.
func weekWindow(t time.Time) (time.Time, time.Time) {
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start := dayStart.AddDate(0, 0, -int(t.Weekday()))
	return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond)
}
