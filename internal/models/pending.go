// Package models defines the persisted entities of MovieCP.
package models

import "time"

// Pending file statuses. Transitions are monotonic:
// pending → processing → approved | rejected | failed.
// A failed record returns to pending only through external re-submission.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusFailed     = "failed"
)

// PendingFile is a discovered file awaiting disposition. SourcePath is unique
// among pending files; a duplicate insert is a no-op ("already tracked").
type PendingFile struct {
	ID           string    `json:"id"`
	SourcePath   string    `json:"source_path"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"size_bytes"`
	DetectedAt   time.Time `json:"detected_at"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	// Metadata is an opaque JSON blob (extension, source mtime, ...).
	Metadata string `json:"metadata,omitempty"`
}
