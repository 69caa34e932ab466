package light

import (
	"fmt"
	"sync"

	"github.com/lightrelay/lightrelay/types"
)

// TrustChain holds the committee the light client currently trusts and
// advances it one epoch at a time through end-of-epoch checkpoints.
//
// A failed VerifyAndAdvance leaves the state untouched. Accessors are safe
// for concurrent use, but checkpoints must be applied by one goroutine, in
// order.
type TrustChain struct {
	mtx       sync.RWMutex
	committee *types.Committee
	last      *types.CertifiedCheckpointSummary
}

// NewTrustChain returns an uninitialized trust chain.
func NewTrustChain() *TrustChain {
	return &TrustChain{}
}

// Initialize installs the bootstrap committee, trusted unconditionally. It
// can be called only once.
func (tc *TrustChain) Initialize(c *types.Committee) error {
	if c == nil {
		return fmt.Errorf("nil committee")
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()

	if tc.committee != nil {
		return ErrAlreadyInitialized
	}
	tc.committee = c
	return nil
}

// Committee returns the committee trusted for the current epoch or nil if
// the chain is not initialized.
func (tc *TrustChain) Committee() *types.Committee {
	tc.mtx.RLock()
	defer tc.mtx.RUnlock()
	return tc.committee
}

// LastVerified returns the last checkpoint that advanced the chain, if any.
func (tc *TrustChain) LastVerified() *types.CertifiedCheckpointSummary {
	tc.mtx.RLock()
	defer tc.mtx.RUnlock()
	return tc.last
}

// VerifyAndAdvance checks that s is an end-of-epoch checkpoint certified by
// the trusted committee and, if so, trusts the committee it announces from
// now on. The new committee is returned.
//
// Checks run in this order:
//  1. the chain is initialized (ErrUninitialized);
//  2. s is newer than the last applied checkpoint (ErrOutOfOrder);
//  3. s belongs to the trusted committee's epoch;
//  4. s carries a valid quorum certificate of that committee;
//  5. s closes the epoch (ErrNotEndOfEpoch).
//
// Failures of 2-4 are reported as ErrVerification.
func (tc *TrustChain) VerifyAndAdvance(s *types.CertifiedCheckpointSummary) (*types.Committee, error) {
	tc.mtx.Lock()
	defer tc.mtx.Unlock()

	if tc.committee == nil {
		return nil, ErrUninitialized
	}

	seq := s.SequenceNumber()
	if tc.last != nil && seq <= tc.last.SequenceNumber() {
		return nil, ErrVerification{
			Seq:    seq,
			Reason: fmt.Errorf("%w: last verified #%d", ErrOutOfOrder, tc.last.SequenceNumber()),
		}
	}
	if s.Epoch() != tc.committee.Epoch {
		return nil, ErrVerification{
			Seq:    seq,
			Reason: types.ErrEpochMismatch{Expected: tc.committee.Epoch, Actual: s.Epoch()},
		}
	}
	if err := s.Summary.ValidateBasic(); err != nil {
		return nil, ErrVerification{Seq: seq, Reason: err}
	}
	if err := s.VerifyAuthoritySignatures(tc.committee); err != nil {
		return nil, ErrVerification{Seq: seq, Reason: err}
	}
	if !s.Summary.IsEndOfEpoch() {
		return nil, fmt.Errorf("checkpoint #%d: %w", seq, ErrNotEndOfEpoch)
	}

	next, err := s.Summary.NextCommittee()
	if err != nil {
		return nil, ErrVerification{Seq: seq, Reason: fmt.Errorf("next committee: %w", err)}
	}

	tc.committee = next
	tc.last = s
	return next, nil
}
