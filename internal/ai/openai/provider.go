// Package openai implements the generation suite on the OpenAI API: chat
// completions for script, metadata, and series work, TTS for narration audio,
// and image generation for thumbnails.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	ai "github.com/studioops/videopilot/internal/ai/aierrors"
	"github.com/studioops/videopilot/internal/config"
	"github.com/studioops/videopilot/pkg/models"
)

const scriptPrompt = `You are a scriptwriter for a video channel. Write a complete spoken-word
script for a %s-form video. Respond with a JSON object with exactly these keys:
"title" (a punchy video title), "topic" (a short topic label), and "script"
(the full narration text, no stage directions). Short-form scripts run under
60 seconds of narration; long-form scripts run 8-12 minutes.`

const metadataPrompt = `You are a video metadata specialist. Given a video title and script,
produce upload-ready metadata. Respond with a JSON object with exactly these keys:
"optimized_title", "optimized_description", "optimized_tags" (array of strings),
"optimized_category", and "suggested_upload_time" (RFC3339 timestamp, or an
empty string when immediate publishing is best).`

const seriesPrompt = `You are a content strategist planning long-form video series. Given a list
of the playlists a channel already runs, either pick the most promising
existing series to continue or propose a new one. Respond with a JSON object
with exactly these keys: "topic" (the series topic), "playlist" (the playlist
name), and "is_new_series" (boolean).`

// Provider implements models.AIProvider using the OpenAI API.
type Provider struct {
	cfg    config.OpenAIConfig
	client *goopenai.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{cfg: cfg, client: goopenai.NewClient(cfg.APIKey)}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) GenerateScript(ctx context.Context, req models.ScriptRequest) (models.ScriptResult, error) {
	var sb strings.Builder
	if req.Topic != "" {
		fmt.Fprintf(&sb, "Topic: %s\n", req.Topic)
	}
	if req.Title != "" {
		fmt.Fprintf(&sb, "Working title: %s\n", req.Title)
	}
	if req.InspirationURL != "" {
		fmt.Fprintf(&sb, "Take inspiration from the content at: %s\n", req.InspirationURL)
	}
	if sb.Len() == 0 {
		sb.WriteString("Pick a currently trending topic with broad appeal.\n")
	}

	content, err := p.chatJSON(ctx, fmt.Sprintf(scriptPrompt, req.Length), sb.String())
	if err != nil {
		return models.ScriptResult{}, err
	}

	var out struct {
		Title  string `json:"title"`
		Topic  string `json:"topic"`
		Script string `json:"script"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return models.ScriptResult{}, fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	if out.Script == "" {
		return models.ScriptResult{}, fmt.Errorf("%w: empty script", ai.ErrInvalidResponse)
	}

	return models.ScriptResult{Title: out.Title, Topic: out.Topic, Script: out.Script}, nil
}

func (p *Provider) OptimizeMetadata(ctx context.Context, req models.MetadataRequest) (models.MetadataResult, error) {
	user := fmt.Sprintf("Title: %s\nCategory: %s\nDescription: %s\nTags: %s\n\nScript:\n%s",
		req.Title, req.Category, req.Description, strings.Join(req.Tags, ", "), req.Script)

	content, err := p.chatJSON(ctx, metadataPrompt, user)
	if err != nil {
		return models.MetadataResult{}, err
	}

	var out struct {
		OptimizedTitle       string   `json:"optimized_title"`
		OptimizedDescription string   `json:"optimized_description"`
		OptimizedTags        []string `json:"optimized_tags"`
		OptimizedCategory    string   `json:"optimized_category"`
		SuggestedUploadTime  string   `json:"suggested_upload_time"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return models.MetadataResult{}, fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	if out.OptimizedTitle == "" {
		return models.MetadataResult{}, fmt.Errorf("%w: empty optimized title", ai.ErrInvalidResponse)
	}

	return models.MetadataResult{
		OptimizedTitle:       out.OptimizedTitle,
		OptimizedDescription: out.OptimizedDescription,
		OptimizedTags:        out.OptimizedTags,
		OptimizedCategory:    out.OptimizedCategory,
		SuggestedUploadTime:  out.SuggestedUploadTime,
	}, nil
}

func (p *Provider) SuggestSeries(ctx context.Context, existingPlaylists []string) (models.SeriesSuggestion, error) {
	user := "Existing playlists: none yet."
	if len(existingPlaylists) > 0 {
		user = "Existing playlists: " + strings.Join(existingPlaylists, ", ")
	}

	content, err := p.chatJSON(ctx, seriesPrompt, user)
	if err != nil {
		return models.SeriesSuggestion{}, err
	}

	var out struct {
		Topic       string `json:"topic"`
		Playlist    string `json:"playlist"`
		IsNewSeries bool   `json:"is_new_series"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return models.SeriesSuggestion{}, fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	if out.Topic == "" || out.Playlist == "" {
		return models.SeriesSuggestion{}, fmt.Errorf("%w: missing topic or playlist", ai.ErrInvalidResponse)
	}

	return models.SeriesSuggestion{Topic: out.Topic, Playlist: out.Playlist, IsNewSeries: out.IsNewSeries}, nil
}

func (p *Provider) Synthesize(ctx context.Context, script string) ([]byte, error) {
	resp, err := p.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model: goopenai.SpeechModel(p.cfg.SpeechModel),
		Input: script,
		Voice: goopenai.VoiceAlloy,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}
	return data, nil
}

func (p *Provider) GenerateThumbnail(ctx context.Context, req models.ThumbnailRequest) ([]byte, error) {
	prompt := fmt.Sprintf(
		"A bold, high-contrast video thumbnail for %q, topic: %s. No text overlays.",
		req.Title, req.Topic)

	resp, err := p.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         prompt,
		Model:          p.cfg.ImageModel,
		N:              1,
		Size:           goopenai.CreateImageSize1024x1024,
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no image returned", ai.ErrInvalidResponse)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	return data, nil
}

func (p *Provider) chatJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.cfg.ChatModel,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ai.ErrInvalidResponse)
	}
	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}

var _ models.AIProvider = (*Provider)(nil)
