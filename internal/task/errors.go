package task

import "errors"

var (
	ErrEmptyTitle    = errors.New("title cannot be empty")
	ErrTitleTooLong  = errors.New("title is too long")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("task not found")
)
