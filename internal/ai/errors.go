package ai

import "github.com/studioops/videopilot/internal/ai/aierrors"

// The sentinels live in the leaf package aierrors so provider subpackages can
// reference them without importing this package; these aliases keep the
// ai.Err* names (and error identity) intact for callers.
var (
	ErrProviderUnavailable = aierrors.ErrProviderUnavailable
	ErrInferenceTimeout    = aierrors.ErrInferenceTimeout
	ErrInvalidResponse     = aierrors.ErrInvalidResponse
)
