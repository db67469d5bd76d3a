package pipeline

import "errors"

var (
	// ErrCreationFailed means script generation, metadata optimization, or
	// render submission failed before a record was persisted.
	ErrCreationFailed = errors.New("video creation failed")
	// ErrNotRetryable means a retry was requested for a video that is not in
	// the failed state.
	ErrNotRetryable = errors.New("video is not in a retryable state")
)
