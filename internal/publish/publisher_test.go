package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[uuid.UUID]*models.Video
}

func newFakeVideoStore(videos ...*models.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: make(map[uuid.UUID]*models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeVideoStore) ListVideosByStatus(_ context.Context, status string) ([]*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Video
	for _, v := range s.videos {
		if v.Status == status {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeVideoStore) UpdateVideoStatus(_ context.Context, id uuid.UUID, status string, _ ...store.VideoUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	v.Status = status
	return nil
}

func (s *fakeVideoStore) status(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videos[id].Status
}

type fakeAssets struct {
	objects map[string][]byte
}

func (a *fakeAssets) Upload(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	a.objects[objectPath] = data
	return "https://assets.test/" + objectPath, nil
}

func (a *fakeAssets) Fetch(_ context.Context, objectPath string) ([]byte, error) {
	data, ok := a.objects[objectPath]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func (a *fakeAssets) Ping(_ context.Context) error { return nil }

type fakeUploader struct {
	uploads []uuid.UUID
	err     error
}

func (u *fakeUploader) UploadVideo(_ context.Context, video *models.Video, _ []byte, _ []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, video.ID)
	return "yt-" + video.ID.String()[:8], nil
}

func scheduledVideo(uploadAt time.Time) *models.Video {
	return &models.Video{
		ID:                  uuid.New(),
		UserID:              uuid.New(),
		OptimizedTitle:      "Optimized title",
		Status:              models.VideoStatusScheduled,
		SuggestedUploadTime: &uploadAt,
	}
}

func TestPublisher_PromotesDueVideo(t *testing.T) {
	video := scheduledVideo(time.Now().Add(-time.Hour).UTC())
	st := newFakeVideoStore(video)
	as := &fakeAssets{objects: map[string][]byte{
		fmt.Sprintf("videos/%s.mp4", video.ID): []byte("media"),
	}}
	up := &fakeUploader{}

	p := NewPublisher(st, as, up, time.Minute)
	p.sweep(context.Background())

	assert.Equal(t, models.VideoStatusPublished, st.status(video.ID))
	require.Len(t, up.uploads, 1)
	assert.Equal(t, video.ID, up.uploads[0])
}

func TestPublisher_SkipsNotYetDue(t *testing.T) {
	video := scheduledVideo(time.Now().Add(time.Hour).UTC())
	st := newFakeVideoStore(video)
	up := &fakeUploader{}

	p := NewPublisher(st, &fakeAssets{objects: map[string][]byte{}}, up, time.Minute)
	p.sweep(context.Background())

	assert.Equal(t, models.VideoStatusScheduled, st.status(video.ID))
	assert.Empty(t, up.uploads)
}

func TestPublisher_UploadFailureStaysScheduled(t *testing.T) {
	video := scheduledVideo(time.Now().Add(-time.Hour).UTC())
	st := newFakeVideoStore(video)
	as := &fakeAssets{objects: map[string][]byte{
		fmt.Sprintf("videos/%s.mp4", video.ID): []byte("media"),
	}}
	up := &fakeUploader{err: errors.New("quota exceeded")}

	p := NewPublisher(st, as, up, time.Minute)
	p.sweep(context.Background())

	assert.Equal(t, models.VideoStatusScheduled, st.status(video.ID),
		"failed uploads are retried on the next sweep")
}

func TestPublisher_MissingMediaStaysScheduled(t *testing.T) {
	video := scheduledVideo(time.Now().Add(-time.Hour).UTC())
	st := newFakeVideoStore(video)
	up := &fakeUploader{}

	p := NewPublisher(st, &fakeAssets{objects: map[string][]byte{}}, up, time.Minute)
	p.sweep(context.Background())

	assert.Equal(t, models.VideoStatusScheduled, st.status(video.ID))
	assert.Empty(t, up.uploads)
}

func TestPublisher_PublishesWithoutThumbnail(t *testing.T) {
	video := scheduledVideo(time.Now().Add(-time.Hour).UTC())
	thumbURL := "https://assets.test/thumbnails/" + video.ID.String() + ".png"
	video.ThumbnailURL = &thumbURL
	st := newFakeVideoStore(video)
	// Thumbnail object missing even though the record points at one.
	as := &fakeAssets{objects: map[string][]byte{
		fmt.Sprintf("videos/%s.mp4", video.ID): []byte("media"),
	}}
	up := &fakeUploader{}

	p := NewPublisher(st, as, up, time.Minute)
	p.sweep(context.Background())

	assert.Equal(t, models.VideoStatusPublished, st.status(video.ID))
	require.Len(t, up.uploads, 1)
}
