package ledger

import "time"

// Status is the outcome of a download attempt.
type Status string

const (
	StatusFound  Status = "found"
	StatusFailed Status = "failed"
)

// Attempt is one recorded download.
type Attempt struct {
	ID          int64
	RunID       string
	MoveID      int
	Name        string
	Link        string
	Status      Status
	File        string
	Error       string
	AttemptedAt time.Time
}
