package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndOfEpochData is returned when a committee is requested from a
	// summary that does not close its epoch.
	ErrNoEndOfEpochData = errors.New("checkpoint summary carries no end of epoch data")

	// ErrInvalidSignature means the aggregate signature does not verify
	// against the signers' public keys.
	ErrInvalidSignature = errors.New("invalid aggregate signature")

	// ErrInvalidSignersMap means the signer bitmap is malformed or longer
	// than the committee.
	ErrInvalidSignersMap = errors.New("invalid signers map")
)

// ErrNotEnoughStake is returned when the signers of a certificate hold
// less than the quorum threshold.
type ErrNotEnoughStake struct {
	Got    uint64
	Needed uint64
}

func (e ErrNotEnoughStake) Error() string {
	return fmt.Sprintf("invalid certificate: insufficient stake signed (got %d, needed %d)",
		e.Got, e.Needed)
}

// ErrEpochMismatch means a certificate was produced by a different
// committee than the one used to verify it.
type ErrEpochMismatch struct {
	Expected uint64
	Actual   uint64
}

func (e ErrEpochMismatch) Error() string {
	return fmt.Sprintf("epoch mismatch: committee epoch %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidSigner means the signer bitmap references a member the
// committee does not have.
type ErrInvalidSigner struct {
	Index uint
	Size  int
}

func (e ErrInvalidSigner) Error() string {
	return fmt.Sprintf("signer index %d out of range for committee of size %d", e.Index, e.Size)
}

// ErrContentDigestMismatch means checkpoint contents do not hash to the
// digest committed in the summary.
type ErrContentDigestMismatch struct {
	Expected Digest
	Actual   Digest
}

func (e ErrContentDigestMismatch) Error() string {
	return fmt.Sprintf("content digest mismatch: expected %v, got %v", e.Expected, e.Actual)
}
