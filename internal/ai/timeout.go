package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studioops/videopilot/pkg/models"
)

// WithTimeout bounds every inference call on the provider with the given
// deadline and maps deadline expiry to ErrInferenceTimeout, so a slow model
// cannot hold a submission open indefinitely. A non-positive timeout returns
// the provider unwrapped.
func WithTimeout(p models.AIProvider, timeout time.Duration) models.AIProvider {
	if timeout <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: timeout}
}

type timeoutProvider struct {
	inner   models.AIProvider
	timeout time.Duration
}

func (p *timeoutProvider) Name() string { return p.inner.Name() }

func (p *timeoutProvider) GenerateScript(ctx context.Context, req models.ScriptRequest) (models.ScriptResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	res, err := p.inner.GenerateScript(ctx, req)
	return res, classify(ctx, err)
}

func (p *timeoutProvider) OptimizeMetadata(ctx context.Context, req models.MetadataRequest) (models.MetadataResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	res, err := p.inner.OptimizeMetadata(ctx, req)
	return res, classify(ctx, err)
}

func (p *timeoutProvider) SuggestSeries(ctx context.Context, existingPlaylists []string) (models.SeriesSuggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	res, err := p.inner.SuggestSeries(ctx, existingPlaylists)
	return res, classify(ctx, err)
}

func (p *timeoutProvider) Synthesize(ctx context.Context, script string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	data, err := p.inner.Synthesize(ctx, script)
	return data, classify(ctx, err)
}

func (p *timeoutProvider) GenerateThumbnail(ctx context.Context, req models.ThumbnailRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	data, err := p.inner.GenerateThumbnail(ctx, req)
	return data, classify(ctx, err)
}

// classify maps deadline expiry to the inference-timeout sentinel so callers
// can tell a slow model from a broken one. Other errors pass through.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	return err
}

var _ models.AIProvider = (*timeoutProvider)(nil)
