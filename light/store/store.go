package store

import "github.com/lightrelay/lightrelay/types"

// Store persists the list of end-of-epoch checkpoint sequence numbers the
// light client follows, and caches certified summaries by sequence number.
//
// Every mutation is durable once the call returns: a crash never loses an
// acknowledged write nor leaves a partially written one behind.
type Store interface {
	// CheckpointList returns the listed sequence numbers in ascending order.
	CheckpointList() ([]uint64, error)

	// LastCheckpoint returns the last listed sequence number.
	//
	// If the list is empty, ErrEmptyList is returned.
	LastCheckpoint() (uint64, error)

	// AppendCheckpoint adds seq to the end of the list. seq must be greater
	// than the last listed sequence number, otherwise an ErrStorage wrapping
	// ErrOutOfOrder is returned and the list is left untouched.
	AppendCheckpoint(seq uint64) error

	// Checkpoint returns the cached summary of seq.
	//
	// If no summary is cached, ErrCheckpointNotFound is returned.
	Checkpoint(seq uint64) (*types.CertifiedCheckpointSummary, error)

	// SaveCheckpoint caches c under seq. Saving the same summary twice is a
	// no-op; saving a different one under an occupied seq returns an
	// ErrStorage wrapping ErrConflict.
	SaveCheckpoint(seq uint64, c *types.CertifiedCheckpointSummary) error

	// CheckpointBefore returns the cached summary of the greatest listed
	// sequence number strictly below seq.
	//
	// If there is no such entry, or its summary is not cached,
	// ErrCheckpointNotFound is returned.
	CheckpointBefore(seq uint64) (*types.CertifiedCheckpointSummary, error)

	// Close releases the underlying resources.
	Close() error
}
