package store

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckpointNotFound is returned when a store does not have the
	// requested checkpoint summary.
	ErrCheckpointNotFound = errors.New("checkpoint summary not found")

	// ErrEmptyList is returned when the checkpoint list has no entries.
	ErrEmptyList = errors.New("checkpoint list is empty")

	// ErrOutOfOrder means an append would break the strictly increasing
	// order of the list.
	ErrOutOfOrder = errors.New("sequence number is not greater than the last listed one")

	// ErrConflict means a different summary is already stored under the
	// same sequence number.
	ErrConflict = errors.New("a different summary is already stored")
)

// ErrStorage wraps every failure to read or persist store state.
type ErrStorage struct {
	Op  string
	Err error
}

func (e ErrStorage) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e ErrStorage) Unwrap() error {
	return e.Err
}
