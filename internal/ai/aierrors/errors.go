// Package aierrors holds the AI sentinel errors in a leaf package so that
// both the ai package and its provider subpackages can import them without
// an import cycle.
package aierrors

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)
