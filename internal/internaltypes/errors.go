package internaltypes

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")

	// ErrLocked is returned when another session already holds the run guard
	// for the same account and date.
	ErrLocked = errors.New("booking run already in progress")

	ErrInvalidExecutionTime = errors.New("invalid execution time (want HH:MM:SS.ffffff)")
)
