package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/lightrelay/lightrelay/types"
)

// EventID identifies an event and doubles as the page cursor.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

func (id EventID) String() string {
	return id.TxDigest + ":" + id.EventSeq
}

// EventFilter selects the events emitted by one Move module.
type EventFilter struct {
	Package types.Address
	Module  string
}

// Event is a target chain event with its JSON payload left undecoded.
type Event struct {
	ID         EventID         `json:"id"`
	PackageID  types.Address   `json:"packageId"`
	Module     string          `json:"transactionModule"`
	Type       string          `json:"type"`
	ParsedJSON json.RawMessage `json:"parsedJson"`
}

// EventPage is one page of a QueryEvents result.
type EventPage struct {
	Data        []Event  `json:"data"`
	NextCursor  *EventID `json:"nextCursor"`
	HasNextPage bool     `json:"hasNextPage"`
}

// EventSource is implemented by target chain clients.
type EventSource interface {
	// QueryEvents returns up to limit events matching filter, newest first,
	// starting after cursor (from the newest event if cursor is nil).
	QueryEvents(ctx context.Context, filter EventFilter, cursor *EventID, limit int) (*EventPage, error)
}

// EventIterator walks every page of an event query.
type EventIterator struct {
	source EventSource
	filter EventFilter
	limit  int
}

// NewEventIterator returns an iterator over the events matching filter,
// requested limit at a time.
func NewEventIterator(source EventSource, filter EventFilter, limit int) *EventIterator {
	return &EventIterator{source: source, filter: filter, limit: limit}
}

// Scan calls fn on every event, page after page, until fn asks to stop,
// returns an error or the pages run out. The query is exhausted when a page
// reports no next page or carries no cursor.
func (it *EventIterator) Scan(ctx context.Context, fn func(Event) (stop bool, err error)) error {
	var cursor *EventID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := it.source.QueryEvents(ctx, it.filter, cursor, it.limit)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		for _, ev := range page.Data {
			stop, err := fn(ev)
			if err != nil || stop {
				return err
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return nil
		}
		cursor = page.NextCursor
	}
}

// Registration is a committee registration event.
type Registration struct {
	// Epoch of the checkpoint that registered the committee.
	Epoch uint64
	// Committee object created by the registration.
	CommitteeID types.ObjectID
	// Registry the committee belongs to.
	RegistryID types.ObjectID
}

type registrationJSON struct {
	Epoch            *string `json:"epoch"`
	EpochCommitteeID string  `json:"epoch_committee_id"`
	RegistryID       string  `json:"registry_id"`
}

// ParseRegistration decodes ev as a committee registration. The second
// return value is false for events of the module that carry no epoch, which
// are not registrations.
func ParseRegistration(ev Event) (Registration, bool, error) {
	var (
		r   Registration
		raw registrationJSON
	)
	if len(ev.ParsedJSON) == 0 {
		return r, false, nil
	}
	if err := json.Unmarshal(ev.ParsedJSON, &raw); err != nil {
		// payloads other than JSON objects are not registrations
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "" {
			return r, false, nil
		}
		return r, false, ErrMalformedEvent{ev.ID, err}
	}
	if raw.Epoch == nil {
		return r, false, nil
	}

	epoch, err := strconv.ParseUint(*raw.Epoch, 10, 64)
	if err != nil {
		return r, false, ErrMalformedEvent{ev.ID, fmt.Errorf("epoch: %w", err)}
	}
	r.Epoch = epoch
	if r.RegistryID, err = types.AddressFromHex(raw.RegistryID); err != nil {
		return r, false, ErrMalformedEvent{ev.ID, fmt.Errorf("registry_id: %w", err)}
	}
	if raw.EpochCommitteeID != "" {
		if r.CommitteeID, err = types.AddressFromHex(raw.EpochCommitteeID); err != nil {
			return r, false, ErrMalformedEvent{ev.ID, fmt.Errorf("epoch_committee_id: %w", err)}
		}
	}
	return r, true, nil
}
