package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// Task types.
const (
	TaskTypeThumbnail = "thumbnail"
)

// Task is a persisted side-effect job processed by the background task worker
// with at-least-once delivery. Thumbnail generation is enqueued as a task when
// a video reaches a terminal state rather than fired as an unawaited call, so
// its outcome is observable and survives a process restart.
type Task struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	VideoID      uuid.UUID  `db:"video_id"      json:"video_id"`
	Type         string     `db:"type"          json:"type"`
	Status       string     `db:"status"        json:"status"`
	Attempts     int        `db:"attempts"      json:"attempts"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}
