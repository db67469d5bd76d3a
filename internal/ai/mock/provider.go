// Package mock provides an AI provider for tests and local development.
package mock

import (
	"context"

	"github.com/studioops/videopilot/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_                 string
	GenerateScriptFunc    func(ctx context.Context, req models.ScriptRequest) (models.ScriptResult, error)
	OptimizeMetadataFunc  func(ctx context.Context, req models.MetadataRequest) (models.MetadataResult, error)
	SuggestSeriesFunc     func(ctx context.Context, existingPlaylists []string) (models.SeriesSuggestion, error)
	SynthesizeFunc        func(ctx context.Context, script string) ([]byte, error)
	GenerateThumbnailFunc func(ctx context.Context, req models.ThumbnailRequest) ([]byte, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) GenerateScript(ctx context.Context, req models.ScriptRequest) (models.ScriptResult, error) {
	if m.GenerateScriptFunc != nil {
		return m.GenerateScriptFunc(ctx, req)
	}
	return models.ScriptResult{}, nil
}

func (m *MockProvider) OptimizeMetadata(ctx context.Context, req models.MetadataRequest) (models.MetadataResult, error) {
	if m.OptimizeMetadataFunc != nil {
		return m.OptimizeMetadataFunc(ctx, req)
	}
	return models.MetadataResult{}, nil
}

func (m *MockProvider) SuggestSeries(ctx context.Context, existingPlaylists []string) (models.SeriesSuggestion, error) {
	if m.SuggestSeriesFunc != nil {
		return m.SuggestSeriesFunc(ctx, existingPlaylists)
	}
	return models.SeriesSuggestion{}, nil
}

func (m *MockProvider) Synthesize(ctx context.Context, script string) ([]byte, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, script)
	}
	return nil, nil
}

func (m *MockProvider) GenerateThumbnail(ctx context.Context, req models.ThumbnailRequest) ([]byte, error) {
	if m.GenerateThumbnailFunc != nil {
		return m.GenerateThumbnailFunc(ctx, req)
	}
	return nil, nil
}

// NewProvider returns a MockProvider with sensible default responses.
func NewProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateScriptFunc: func(_ context.Context, req models.ScriptRequest) (models.ScriptResult, error) {
			topic := req.Topic
			if topic == "" {
				topic = "a trending topic"
			}
			title := req.Title
			if title == "" {
				title = "Mock video about " + topic
			}
			return models.ScriptResult{
				Title:  title,
				Topic:  topic,
				Script: "Mock narration script about " + topic + " for testing.",
			}, nil
		},
		OptimizeMetadataFunc: func(_ context.Context, req models.MetadataRequest) (models.MetadataResult, error) {
			return models.MetadataResult{
				OptimizedTitle:       req.Title + " (optimized)",
				OptimizedDescription: "Mock optimized description.",
				OptimizedTags:        []string{"mock", "test"},
				OptimizedCategory:    "Education",
			}, nil
		},
		SuggestSeriesFunc: func(_ context.Context, existingPlaylists []string) (models.SeriesSuggestion, error) {
			if len(existingPlaylists) > 0 {
				return models.SeriesSuggestion{
					Topic:       "Mock continuing series",
					Playlist:    existingPlaylists[0],
					IsNewSeries: false,
				}, nil
			}
			return models.SeriesSuggestion{
				Topic:       "Mock new series",
				Playlist:    "Mock Playlist",
				IsNewSeries: true,
			}, nil
		},
		SynthesizeFunc: func(_ context.Context, _ string) ([]byte, error) {
			return []byte("mock-audio-bytes"), nil
		},
		GenerateThumbnailFunc: func(_ context.Context, _ models.ThumbnailRequest) ([]byte, error) {
			return []byte("mock-thumbnail-bytes"), nil
		},
	}
}

// NewFailingProvider returns a MockProvider whose every call returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateScriptFunc: func(_ context.Context, _ models.ScriptRequest) (models.ScriptResult, error) {
			return models.ScriptResult{}, err
		},
		OptimizeMetadataFunc: func(_ context.Context, _ models.MetadataRequest) (models.MetadataResult, error) {
			return models.MetadataResult{}, err
		},
		SuggestSeriesFunc: func(_ context.Context, _ []string) (models.SeriesSuggestion, error) {
			return models.SeriesSuggestion{}, err
		},
		SynthesizeFunc: func(_ context.Context, _ string) ([]byte, error) {
			return nil, err
		},
		GenerateThumbnailFunc: func(_ context.Context, _ models.ThumbnailRequest) ([]byte, error) {
			return nil, err
		},
	}
}

var _ models.AIProvider = (*MockProvider)(nil)
