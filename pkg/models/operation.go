package models

import "time"

// Operation is the last known descriptor of a long-running render operation.
// The operation name is an opaque token issued by the render service. Descriptors
// are not persisted with the video record; they live in the shared operation
// store and expire 24 hours after submission regardless of completion state.
type Operation struct {
	Name        string    `json:"name"`
	Done        bool      `json:"done"`
	Error       string    `json:"error,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
