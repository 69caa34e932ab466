package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRegisteredEpoch means the registry has no committee registration
	// event yet. Callers treat it as epoch 0.
	ErrNoRegisteredEpoch = errors.New("no committee registered")

	// ErrRelayNotConfirmed means a submitted committee did not show up in
	// the registry before the confirmation timeout.
	ErrRelayNotConfirmed = errors.New("relayed committee not confirmed")
)

// ErrCommitteeNotRegistered means no registration event exists for the
// committee of Epoch, so there is nothing to chain a new committee to.
type ErrCommitteeNotRegistered struct {
	Epoch uint64
}

func (e ErrCommitteeNotRegistered) Error() string {
	return fmt.Sprintf("committee of epoch %d is not registered", e.Epoch)
}

// ErrMalformedEvent is returned for a registration event whose payload does
// not parse.
type ErrMalformedEvent struct {
	ID     EventID
	Reason error
}

func (e ErrMalformedEvent) Error() string {
	return fmt.Sprintf("malformed registration event %v: %v", e.ID, e.Reason)
}

func (e ErrMalformedEvent) Unwrap() error {
	return e.Reason
}
