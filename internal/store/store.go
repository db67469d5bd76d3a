package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrConflict = errors.New("concurrent modification conflict")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetUserVideo(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Video, error)
	ListVideos(ctx context.Context, filter VideoFilter) ([]*models.Video, int, error)
	ListVideosByStatus(ctx context.Context, status string) ([]*models.Video, error)
	UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string, opts ...VideoUpdateOption) error
	// ClaimVideo conditionally moves a video from expected to next status.
	// Returns false without error when another writer got there first.
	ClaimVideo(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)
	// CompleteVideo writes both asset URLs and the terminal status in a single
	// statement, guarded by the materializing claim.
	CompleteVideo(ctx context.Context, id uuid.UUID, videoURL, audioURL, status string) error
	SetThumbnailURL(ctx context.Context, id uuid.UUID, url string) error
	CountVideos(ctx context.Context, userID uuid.UUID, length string, from, to time.Time) (int, error)
	ListPlaylists(ctx context.Context, userID uuid.UUID) ([]string, error)
	CountPlaylistVideos(ctx context.Context, userID uuid.UUID, playlist string) (int, error)

	CreateTask(ctx context.Context, task *models.Task) error
	// ClaimNextTask atomically picks the oldest pending task of the given type
	// and marks it running, skipping rows locked by other workers.
	ClaimNextTask(ctx context.Context, taskType string) (*models.Task, error)
	CompleteTask(ctx context.Context, id uuid.UUID) error
	// FailTask records a failed attempt. When retry is true the task returns to
	// pending for another attempt; otherwise it is marked failed for good.
	FailTask(ctx context.Context, id uuid.UUID, errMsg string, retry bool) error
}

// VideoFilter narrows ListVideos results. UserID is required; everything else
// is optional.
type VideoFilter struct {
	UserID   uuid.UUID
	Status   string
	Length   string
	Playlist string
	Page     int
	Limit    int
}

// VideoUpdate collects the optional column writes a status update can carry.
// Exported so fake stores in tests can apply the same options the real
// implementation does.
type VideoUpdate struct {
	ErrorMessage  *string
	OperationName *string
}

type VideoUpdateOption func(*VideoUpdate)

func WithErrorMessage(msg string) VideoUpdateOption {
	return func(p *VideoUpdate) {
		p.ErrorMessage = &msg
	}
}

func WithOperationName(name string) VideoUpdateOption {
	return func(p *VideoUpdate) {
		p.OperationName = &name
	}
}
