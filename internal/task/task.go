package task

import "time"

// Status is the two-state lifecycle of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggle returns the other status.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

func (s Status) Done() bool {
	return s == StatusCompleted
}

// ParseStatus checks a stored status value.
func ParseStatus(v string) (Status, error) {
	if s := Status(v); s.Valid() {
		return s, nil
	}
	return "", ErrInvalidStatus
}

type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	CreatedAt   time.Time
}
