package models

import "time"

// Terminal actions.
const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// ProcessedFile is the immutable history record created exactly once when a
// pending file reaches a terminal disposition. FinalPath and FinalFilename
// are empty for rejected files; VersionNumber is meaningful only for approved
// ones and is always ≥ 1.
type ProcessedFile struct {
	ID               string    `json:"id"`
	SourcePath       string    `json:"source_path"`
	OriginalFilename string    `json:"original_filename"`
	FinalPath        string    `json:"final_path,omitempty"`
	FinalFilename    string    `json:"final_filename,omitempty"`
	SizeBytes        int64     `json:"size_bytes"`
	DetectedAt       time.Time `json:"detected_at"`
	ProcessedAt      time.Time `json:"processed_at"`
	Action           string    `json:"action"`
	VersionNumber    int       `json:"version_number,omitempty"`
	RenamerOutput    string    `json:"renamer_output,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}
