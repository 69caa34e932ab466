package light

import (
	"errors"
	"fmt"
)

var (
	// ErrUninitialized is returned when the trust chain is used before a
	// committee was installed.
	ErrUninitialized = errors.New("trust chain is not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("trust chain is already initialized")

	// ErrOutOfOrder means the checkpoint is not newer than the last one the
	// trust chain applied.
	ErrOutOfOrder = errors.New("checkpoint is not newer than the last verified one")

	// ErrNotEndOfEpoch means a correctly certified checkpoint carries no next
	// committee, so trust cannot advance past it.
	ErrNotEndOfEpoch = errors.New("checkpoint does not close its epoch")

	// ErrTransactionNotFound means no certified entry of the checkpoint
	// matches the requested transaction.
	ErrTransactionNotFound = errors.New("transaction not found in checkpoint")

	// ErrEventsDigestMismatch means the events do not hash to the digest the
	// certified effects commit to.
	ErrEventsDigestMismatch = errors.New("events do not match the effects' events digest")
)

// ErrVerification means checkpoint Seq failed verification: a bad quorum
// certificate, an unexpected epoch or contents it does not attest. It is
// never retried.
type ErrVerification struct {
	Seq    uint64
	Reason error
}

func (e ErrVerification) Error() string {
	return fmt.Sprintf("verify checkpoint #%d: %v", e.Seq, e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrVerification) Unwrap() error {
	return e.Reason
}

// ErrSync means the checkpoint list could not be brought up to the chain
// head.
type ErrSync struct {
	Reason error
}

func (e ErrSync) Error() string {
	return fmt.Sprintf("sync checkpoint list: %v", e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrSync) Unwrap() error {
	return e.Reason
}

// ErrCommitteeUnknown is returned when no trusted committee for Epoch is
// known locally. Syncing further usually fixes it.
type ErrCommitteeUnknown struct {
	Epoch uint64
}

func (e ErrCommitteeUnknown) Error() string {
	return fmt.Sprintf("no trusted committee for epoch %d, sync first", e.Epoch)
}
