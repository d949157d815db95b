package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one sticker-sheet generation from submission to its terminal
// state. Result slots are only populated on completion.
type Job struct {
	ID           string
	UserID       string
	Status       JobStatus
	StyleID      string
	ImageRef     string
	Prompt       string
	GridFallback bool
	ResultSlots  []StickerSlot
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
