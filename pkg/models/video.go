// Package models contains shared data models used across the VideoPilot codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Video lifecycle statuses. A video starts at processing and moves forward only,
// except for a user-triggered retry that resets failed back to processing.
// Materializing is an internal claim state held while assets are uploaded; it
// guards against two reconciliation calls racing into the same upload sequence.
const (
	VideoStatusProcessing    = "processing"
	VideoStatusMaterializing = "materializing"
	VideoStatusGenerated     = "generated"
	VideoStatusScheduled     = "scheduled"
	VideoStatusPublished     = "published"
	VideoStatusFailed        = "failed"
)

// Video length classes.
const (
	VideoLengthShort = "short"
	VideoLengthLong  = "long"
)

// Video is a single AI-generated video request and its lifecycle state.
// The record is created in processing state by the submission service and
// advanced by the reconciliation engine; a record in a terminal state
// (generated, scheduled, published) always carries both asset URLs.
type Video struct {
	ID                   uuid.UUID  `db:"id"                     json:"id"`
	UserID               uuid.UUID  `db:"user_id"                json:"user_id"`
	Title                string     `db:"title"                  json:"title"`
	Topic                string     `db:"topic"                  json:"topic"`
	Script               string     `db:"script"                 json:"script"`
	Length               string     `db:"length"                 json:"length"`
	Playlist             *string    `db:"playlist"               json:"playlist,omitempty"`
	Status               string     `db:"status"                 json:"status"`
	OptimizedTitle       string     `db:"optimized_title"        json:"optimized_title"`
	OptimizedDescription string     `db:"optimized_description"  json:"optimized_description"`
	OptimizedTags        []string   `db:"optimized_tags"         json:"optimized_tags"`
	OptimizedCategory    string     `db:"optimized_category"     json:"optimized_category"`
	SuggestedUploadTime  *time.Time `db:"suggested_upload_time"  json:"suggested_upload_time,omitempty"`
	VideoURL             *string    `db:"video_url"              json:"video_url,omitempty"`
	AudioURL             *string    `db:"audio_url"              json:"audio_url,omitempty"`
	ThumbnailURL         *string    `db:"thumbnail_url"          json:"thumbnail_url,omitempty"`
	OperationName        *string    `db:"operation_name"         json:"operation_name,omitempty"`
	ErrorMessage         *string    `db:"error_message"          json:"error_message,omitempty"`
	CreatedAt            time.Time  `db:"created_at"             json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"             json:"updated_at"`
}

// Terminal reports whether the video has reached a state the reconciliation
// engine will never advance past.
func (v *Video) Terminal() bool {
	switch v.Status {
	case VideoStatusGenerated, VideoStatusScheduled, VideoStatusPublished:
		return true
	}
	return false
}

// AssetsComplete reports whether both the video and audio assets have been
// materialized. A terminal record with only one of the two set is invalid.
func (v *Video) AssetsComplete() bool {
	return v.VideoURL != nil && *v.VideoURL != "" && v.AudioURL != nil && *v.AudioURL != ""
}
