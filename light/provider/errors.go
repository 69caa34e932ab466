package provider

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCheckpointNotFound is returned when the remote does not have the
	// requested checkpoint. It is never retried.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrTransactionNotFound is returned when the source chain does not know
	// the requested transaction.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrFetchTimeout is returned when a remote read keeps failing until the
	// retry budget is exhausted.
	ErrFetchTimeout = errors.New("fetch timed out")
)

// ErrDecode is returned when a remote returns bytes that cannot be decoded.
// It is never retried.
type ErrDecode struct {
	Reason error
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("malformed checkpoint data: %v", e.Reason)
}

func (e ErrDecode) Unwrap() error {
	return e.Reason
}

// IsPermanent reports whether err must not be retried.
func IsPermanent(err error) bool {
	var decErr ErrDecode
	switch {
	case errors.Is(err, ErrCheckpointNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.As(err, &decErr),
		errors.Is(err, context.Canceled):
		return true
	}
	return false
}
