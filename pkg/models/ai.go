package models

import "context"

// The generation interfaces below are the seams between the pipeline and the
// AI services backing it. Callers inject these interfaces rather than a
// concrete provider.

// ScriptRequest is the input to script generation.
type ScriptRequest struct {
	Length         string
	Topic          string
	Title          string
	InspirationURL string
}

// ScriptResult is the output of script generation.
type ScriptResult struct {
	Title  string
	Script string
	Topic  string
}

// ScriptGenerator produces a full video script for a topic or title.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, req ScriptRequest) (ScriptResult, error)
}

// MetadataRequest is the input to metadata optimization.
type MetadataRequest struct {
	Title       string
	Script      string
	Category    string
	Description string
	Tags        []string
}

// MetadataResult is the optimized upload metadata for a video. The suggested
// upload time is optional; when set, the video is marked scheduled instead of
// generated once its assets are ready.
type MetadataResult struct {
	OptimizedTitle       string
	OptimizedDescription string
	OptimizedTags        []string
	OptimizedCategory    string
	SuggestedUploadTime  string
}

// MetadataOptimizer rewrites raw title/script metadata into upload-ready form.
// This step runs for every submission, including user-supplied scripts, so all
// downstream records carry uniform metadata.
type MetadataOptimizer interface {
	OptimizeMetadata(ctx context.Context, req MetadataRequest) (MetadataResult, error)
}

// SeriesSuggestion is the strategist's pick for the next long-form series slot.
type SeriesSuggestion struct {
	Topic       string
	Playlist    string
	IsNewSeries bool
}

// SeriesStrategist suggests what long-form series to continue or start,
// given the playlists a user already has.
type SeriesStrategist interface {
	SuggestSeries(ctx context.Context, existingPlaylists []string) (SeriesSuggestion, error)
}

// SpeechSynthesizer renders a script into narration audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

// ThumbnailRequest is the input to thumbnail generation.
type ThumbnailRequest struct {
	VideoID string
	Topic   string
	Script  string
	Title   string
}

// ThumbnailGenerator produces thumbnail image data for a video.
type ThumbnailGenerator interface {
	GenerateThumbnail(ctx context.Context, req ThumbnailRequest) ([]byte, error)
}

// AIProvider is the full generation suite a provider must implement.
type AIProvider interface {
	ScriptGenerator
	MetadataOptimizer
	SeriesStrategist
	SpeechSynthesizer
	ThumbnailGenerator
	// Name returns the provider identifier (e.g., "openai", "mock").
	Name() string
}
