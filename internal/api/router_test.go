package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioops/videopilot/internal/api"
	mw "github.com/studioops/videopilot/internal/api/middleware"
	"github.com/studioops/videopilot/internal/cache"
	"github.com/studioops/videopilot/internal/store"
	"github.com/studioops/videopilot/pkg/models"
)

// --- stub store that returns empty results (all auth fails) ---

type stubStore struct{}

func (s *stubStore) Ping(_ context.Context) error { return nil }

func (s *stubStore) CreateUser(_ context.Context, _ *models.User) error { return nil }
func (s *stubStore) GetUser(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) GetUserByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (s *stubStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *stubStore) ListAPIKeys(_ context.Context, _ uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) RevokeAPIKey(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }

func (s *stubStore) CreateVideo(_ context.Context, _ *models.Video) error { return nil }
func (s *stubStore) GetVideo(_ context.Context, _ uuid.UUID) (*models.Video, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) GetUserVideo(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.Video, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) ListVideos(_ context.Context, _ store.VideoFilter) ([]*models.Video, int, error) {
	return nil, 0, nil
}
func (s *stubStore) ListVideosByStatus(_ context.Context, _ string) ([]*models.Video, error) {
	return nil, nil
}
func (s *stubStore) UpdateVideoStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.VideoUpdateOption) error {
	return nil
}
func (s *stubStore) ClaimVideo(_ context.Context, _ uuid.UUID, _, _ string) (bool, error) {
	return false, nil
}
func (s *stubStore) CompleteVideo(_ context.Context, _ uuid.UUID, _, _, _ string) error { return nil }
func (s *stubStore) SetThumbnailURL(_ context.Context, _ uuid.UUID, _ string) error     { return nil }
func (s *stubStore) CountVideos(_ context.Context, _ uuid.UUID, _ string, _, _ time.Time) (int, error) {
	return 0, nil
}
func (s *stubStore) ListPlaylists(_ context.Context, _ uuid.UUID) ([]string, error) {
	return nil, nil
}
func (s *stubStore) CountPlaylistVideos(_ context.Context, _ uuid.UUID, _ string) (int, error) {
	return 0, nil
}

func (s *stubStore) CreateTask(_ context.Context, _ *models.Task) error { return nil }
func (s *stubStore) ClaimNextTask(_ context.Context, _ string) (*models.Task, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) CompleteTask(_ context.Context, _ uuid.UUID) error               { return nil }
func (s *stubStore) FailTask(_ context.Context, _ uuid.UUID, _ string, _ bool) error { return nil }

// --- stub cache ---

type stubCache struct{}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *stubCache) Ping(_ context.Context) error                                     { return nil }
func (c *stubCache) Close() error                                                     { return nil }
func (c *stubCache) PutOperation(_ context.Context, _ *models.Operation, _ time.Duration) error {
	return nil
}
func (c *stubCache) GetOperation(_ context.Context, _ string) (*models.Operation, bool, error) {
	return nil, false, nil
}
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

// --- router tests ---

func newTestRouter() http.Handler {
	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(&stubStore{}),
		RateLimit: mw.NewRateLimit(&stubCache{}, 60),
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		},
	})
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/videos"},
		{"GET", "/api/v1/videos"},
		{"GET", "/api/v1/videos/" + uuid.NewString()},
		{"GET", "/api/v1/videos/" + uuid.NewString() + "/status"},
		{"POST", "/api/v1/videos/" + uuid.NewString() + "/retry"},
		{"POST", "/api/v1/autopilot"},
		{"POST", "/api/v1/admin/keys"},
		{"GET", "/api/v1/admin/keys"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "INVALID_TOKEN", errObj["code"])
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Verify unused interfaces are satisfied
var _ store.Store = (*stubStore)(nil)
var _ cache.Cache = (*stubCache)(nil)
