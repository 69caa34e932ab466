package bridge

import (
	"github.com/lightrelay/lightrelay/types"
)

// RelayAction is the outcome of Decide.
type RelayAction int

const (
	// Skip leaves the target chain alone: it already knows the committee.
	Skip RelayAction = iota
	// Submit relays the checkpoint.
	Submit
)

func (a RelayAction) String() string {
	switch a {
	case Skip:
		return "skip"
	case Submit:
		return "submit"
	default:
		return "unknown"
	}
}

// Decide returns Submit iff the target chain registered no committee for
// the epoch of s yet, that is iff highest < s.Epoch.
func Decide(s *types.CertifiedCheckpointSummary, highest uint64) RelayAction {
	if highest < s.Epoch() {
		return Submit
	}
	return Skip
}

// Submission is what gets handed over to the target chain: the certified
// end-of-epoch checkpoint of Epoch, chained to the committee object that
// signed it. That object was registered by the checkpoint closing Epoch-1.
type Submission struct {
	// Registry the committee is registered in.
	RegistryID types.ObjectID `json:"registry_id"`
	// Committee object that signed the checkpoint.
	PreviousCommittee types.ObjectRef `json:"previous_committee"`
	// Epoch closed by the checkpoint.
	Epoch uint64 `json:"epoch"`
	// Sequence number of the checkpoint.
	SequenceNumber uint64 `json:"sequence_number"`
	// Canonical encoding of the certified summary.
	Summary []byte `json:"summary"`
}

// NewSubmission builds the submission relaying s.
func NewSubmission(registry types.ObjectID, prev types.ObjectRef, s *types.CertifiedCheckpointSummary) (*Submission, error) {
	bz, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return &Submission{
		RegistryID:        registry,
		PreviousCommittee: prev,
		Epoch:             s.Epoch(),
		SequenceNumber:    s.SequenceNumber(),
		Summary:           bz,
	}, nil
}
