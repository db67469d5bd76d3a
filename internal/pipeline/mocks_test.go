package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studioops/videopilot/internal/renderer"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// mockStore implements store.Store with overridable behavior per test. Video
// and task rows live in maps so state written by one call is visible to the
// next, which the reconciliation flow depends on.
type mockStore struct {
	mu     sync.Mutex
	videos map[uuid.UUID]*models.Video
	tasks  map[uuid.UUID]*models.Task

	createVideoErr error
	claimErr       error
	completeErr    error
	createTaskErr  error

	countVideosFunc    func(userID uuid.UUID, length string, from, to time.Time) (int, error)
	listPlaylistsFunc  func(userID uuid.UUID) ([]string, error)
	countPlaylistFunc  func(userID uuid.UUID, playlist string) (int, error)
	setThumbnailURLErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		videos: make(map[uuid.UUID]*models.Video),
		tasks:  make(map[uuid.UUID]*models.Task),
	}
}

func (m *mockStore) addVideo(v *models.Video) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[v.ID] = v
}

func (m *mockStore) video(id uuid.UUID) *models.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videos[id]
}

func (m *mockStore) taskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }

func (m *mockStore) CreateUser(ctx context.Context, user *models.User) error { return nil }
func (m *mockStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	return nil, nil
}
func (m *mockStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error { return nil }
func (m *mockStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error   { return nil }
func (m *mockStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (m *mockStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return nil
}

func (m *mockStore) CreateVideo(ctx context.Context, video *models.Video) error {
	if m.createVideoErr != nil {
		return m.createVideoErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *video
	m.videos[video.ID] = &cp
	return nil
}

func (m *mockStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockStore) GetUserVideo(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Video, error) {
	v, err := m.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.UserID != userID {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *mockStore) ListVideos(ctx context.Context, filter store.VideoFilter) ([]*models.Video, int, error) {
	return nil, 0, nil
}

func (m *mockStore) ListVideosByStatus(ctx context.Context, status string) ([]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Video
	for _, v := range m.videos {
		if v.Status == status {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateVideoStatus(ctx context.Context, id uuid.UUID, status string, opts ...store.VideoUpdateOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	v.Status = status
	params := &store.VideoUpdate{}
	for _, opt := range opts {
		opt(params)
	}
	if params.ErrorMessage != nil {
		v.ErrorMessage = params.ErrorMessage
	} else if status == models.VideoStatusProcessing {
		v.ErrorMessage = nil
	}
	if params.OperationName != nil {
		v.OperationName = params.OperationName
	}
	return nil
}

func (m *mockStore) ClaimVideo(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.Status != expected {
		return false, nil
	}
	v.Status = next
	return true, nil
}

func (m *mockStore) CompleteVideo(ctx context.Context, id uuid.UUID, videoURL, audioURL, status string) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	v.VideoURL = &videoURL
	v.AudioURL = &audioURL
	v.Status = status
	return nil
}

func (m *mockStore) SetThumbnailURL(ctx context.Context, id uuid.UUID, url string) error {
	if m.setThumbnailURLErr != nil {
		return m.setThumbnailURLErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	v.ThumbnailURL = &url
	return nil
}

func (m *mockStore) CountVideos(ctx context.Context, userID uuid.UUID, length string, from, to time.Time) (int, error) {
	if m.countVideosFunc != nil {
		return m.countVideosFunc(userID, length, from, to)
	}
	return 0, nil
}

func (m *mockStore) ListPlaylists(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if m.listPlaylistsFunc != nil {
		return m.listPlaylistsFunc(userID)
	}
	return nil, nil
}

func (m *mockStore) CountPlaylistVideos(ctx context.Context, userID uuid.UUID, playlist string) (int, error) {
	if m.countPlaylistFunc != nil {
		return m.countPlaylistFunc(userID, playlist)
	}
	return 0, nil
}

func (m *mockStore) CreateTask(ctx context.Context, task *models.Task) error {
	if m.createTaskErr != nil {
		return m.createTaskErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *mockStore) ClaimNextTask(ctx context.Context, taskType string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *models.Task
	for _, t := range m.tasks {
		if t.Type != taskType || t.Status != models.TaskStatusPending {
			continue
		}
		if oldest == nil || t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = t
		}
	}
	if oldest == nil {
		return nil, store.ErrNotFound
	}
	oldest.Status = models.TaskStatusRunning
	oldest.Attempts++
	cp := *oldest
	return &cp, nil
}

func (m *mockStore) CompleteTask(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = models.TaskStatusCompleted
	return nil
}

func (m *mockStore) FailTask(ctx context.Context, id uuid.UUID, errMsg string, retry bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.ErrorMessage = &errMsg
	if retry {
		t.Status = models.TaskStatusPending
	} else {
		t.Status = models.TaskStatusFailed
	}
	return nil
}

var _ store.Store = (*mockStore)(nil)

// mockCache keeps operation descriptors in memory.
type mockCache struct {
	mu  sync.Mutex
	ops map[string]*models.Operation

	putErr error
	getErr error
}

func newMockCache() *mockCache {
	return &mockCache{ops: make(map[string]*models.Operation)}
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (c *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}
func (c *mockCache) Delete(ctx context.Context, key string) error { return nil }
func (c *mockCache) Ping(ctx context.Context) error               { return nil }
func (c *mockCache) Close() error                                 { return nil }

func (c *mockCache) PutOperation(ctx context.Context, op *models.Operation, ttl time.Duration) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *op
	c.ops[op.Name] = &cp
	return nil
}

func (c *mockCache) GetOperation(ctx context.Context, name string) (*models.Operation, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[name]
	if !ok {
		return nil, false, nil
	}
	cp := *op
	return &cp, true, nil
}

func (c *mockCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	return 1, nil
}

// mockRenderer implements renderer.Client with overridable behavior.
type mockRenderer struct {
	mu           sync.Mutex
	submits      int
	polls        int
	submitFunc   func(ctx context.Context, script string, videoID uuid.UUID) (string, error)
	pollFunc     func(ctx context.Context, operationName string) (renderer.PollResult, error)
	downloadFunc func(ctx context.Context, mediaURL string) ([]byte, error)
}

func (r *mockRenderer) Submit(ctx context.Context, script string, videoID uuid.UUID) (string, error) {
	r.mu.Lock()
	r.submits++
	r.mu.Unlock()
	if r.submitFunc != nil {
		return r.submitFunc(ctx, script, videoID)
	}
	return "operations/" + videoID.String(), nil
}

func (r *mockRenderer) Poll(ctx context.Context, operationName string) (renderer.PollResult, error) {
	r.mu.Lock()
	r.polls++
	r.mu.Unlock()
	if r.pollFunc != nil {
		return r.pollFunc(ctx, operationName)
	}
	return renderer.PollResult{}, nil
}

func (r *mockRenderer) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	if r.downloadFunc != nil {
		return r.downloadFunc(ctx, mediaURL)
	}
	return []byte("rendered-bytes"), nil
}

func (r *mockRenderer) Ready(ctx context.Context) error { return nil }

func (r *mockRenderer) pollCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.polls
}

var _ renderer.Client = (*mockRenderer)(nil)

// mockAssets records uploads in memory.
type mockAssets struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	uploadErr error
}

func newMockAssets() *mockAssets {
	return &mockAssets{uploads: make(map[string][]byte)}
}

func (a *mockAssets) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads[objectPath] = data
	return "https://assets.test/" + objectPath, nil
}

func (a *mockAssets) Fetch(ctx context.Context, objectPath string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.uploads[objectPath]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func (a *mockAssets) Ping(ctx context.Context) error { return nil }
