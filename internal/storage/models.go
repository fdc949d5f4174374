package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interaction status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Interaction records one call made on behalf of an AI board action.
type Interaction struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Action     string    `json:"action"` // improve, expand, image
	NoteID     string    `json:"note_id"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}
