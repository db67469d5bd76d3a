package ai

import (
	"fmt"

	"github.com/studioops/videopilot/internal/ai/mock"
	"github.com/studioops/videopilot/internal/ai/openai"
	"github.com/studioops/videopilot/internal/config"
	"github.com/studioops/videopilot/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config, bounded
// by the configured inference timeout. Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	var p models.AIProvider
	switch cfg.Provider {
	case "openai":
		p = openai.NewProvider(cfg.OpenAI)
	case "mock":
		p = mock.NewProvider()
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, mock", cfg.Provider)
	}
	return WithTimeout(p, cfg.InferenceTimeout), nil
}
