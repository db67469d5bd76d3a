// Package publish pushes finished videos to their upload target. The only
// target today is YouTube; uploads authenticate with a long-lived OAuth2
// refresh token obtained out of band.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/studioops/videopilot/internal/config"
	"github.com/studioops/videopilot/pkg/models"
)

// Uploader pushes a finished video and its thumbnail to the upload target and
// returns the remote video ID.
type Uploader interface {
	UploadVideo(ctx context.Context, video *models.Video, media []byte, thumbnail []byte) (string, error)
}

// YouTube's numeric category IDs for the categories the metadata optimizer
// emits. Anything unrecognized falls back to People & Blogs.
var youtubeCategoryIDs = map[string]string{
	"Education":        "27",
	"Entertainment":    "24",
	"Gaming":           "20",
	"Howto & Style":    "26",
	"Music":            "10",
	"News & Politics":  "25",
	"Science":          "28",
	"Sports":           "17",
	"Travel & Events":  "19",
	"People & Blogs":   "22",
	"Comedy":           "23",
	"Film & Animation": "1",
}

const defaultCategoryID = "22"

// YouTubeUploader implements Uploader against the YouTube Data API v3.
type YouTubeUploader struct {
	service *youtube.Service
}

// NewYouTubeUploader builds the API client from OAuth2 refresh-token
// credentials.
func NewYouTubeUploader(ctx context.Context, cfg config.YouTubeConfig) (*YouTubeUploader, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}

	service, err := youtube.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &YouTubeUploader{service: service}, nil
}

func (u *YouTubeUploader) UploadVideo(ctx context.Context, video *models.Video, media []byte, thumbnail []byte) (string, error) {
	categoryID, ok := youtubeCategoryIDs[video.OptimizedCategory]
	if !ok {
		categoryID = defaultCategoryID
	}

	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       video.OptimizedTitle,
			Description: video.OptimizedDescription,
			Tags:        video.OptimizedTags,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}

	call := u.service.Videos.Insert([]string{"snippet", "status"}, upload)
	inserted, err := call.Media(bytes.NewReader(media)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("inserting video: %w", err)
	}

	if len(thumbnail) > 0 {
		_, err := u.service.Thumbnails.Set(inserted.Id).Media(bytes.NewReader(thumbnail)).Context(ctx).Do()
		if err != nil {
			// The video itself is live at this point; a thumbnail failure is
			// not worth failing the whole publish over.
			slog.Warn("setting thumbnail failed", "video_id", video.ID, "youtube_id", inserted.Id, "error", err)
		}
	}

	return inserted.Id, nil
}

var _ Uploader = (*YouTubeUploader)(nil)
