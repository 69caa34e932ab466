package bridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/lightrelay/lightrelay/types"
)

var testRegistry = types.ObjectID{0xaa, 0x01}

func registrationEvent(n int, epoch uint64, committee, registry types.ObjectID) Event {
	return Event{
		ID:     EventID{TxDigest: "tx" + strconv.Itoa(n), EventSeq: "0"},
		Module: "light_client",
		Type:   "0x3::light_client::CommitteeRegistered",
		ParsedJSON: []byte(fmt.Sprintf(`{"epoch":"%d","epoch_committee_id":"%v","registry_id":"%v"}`,
			epoch, committee, registry)),
	}
}

func committeeID(epoch uint64) types.ObjectID {
	return types.ObjectID{0xc0, byte(epoch >> 8), byte(epoch)}
}

// fakeTarget is an in-memory target chain: an event log, objects and a
// submitter that registers what it is given.
type fakeTarget struct {
	mtx sync.Mutex

	events  []Event // newest first
	objects map[types.ObjectID]types.ObjectRef

	submissions []*Submission
	queries     int
	resolves    int
	queryErr    error

	// queries answered after a submission before it shows up, -1 for never
	confirmAfter int
	pending      []uint64
	sinceSubmit  int
}

func newFakeTarget(registered ...uint64) *fakeTarget {
	f := &fakeTarget{objects: make(map[types.ObjectID]types.ObjectRef)}
	for _, epoch := range registered {
		f.register(epoch)
	}
	return f
}

func (f *fakeTarget) register(epoch uint64) {
	id := committeeID(epoch)
	f.objects[id] = types.ObjectRef{ObjectID: id, Version: epoch + 1, Digest: types.Digest{byte(epoch)}}
	ev := registrationEvent(len(f.events), epoch, id, testRegistry)
	f.events = append([]Event{ev}, f.events...)
}

func (f *fakeTarget) addEvent(ev Event) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.events = append([]Event{ev}, f.events...)
}

func (f *fakeTarget) QueryEvents(_ context.Context, _ EventFilter, cursor *EventID, limit int) (*EventPage, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	if len(f.pending) > 0 && f.confirmAfter >= 0 {
		if f.sinceSubmit >= f.confirmAfter {
			for _, epoch := range f.pending {
				f.register(epoch)
			}
			f.pending = nil
		}
		f.sinceSubmit++
	}

	start := 0
	if cursor != nil {
		start = -1
		for i, ev := range f.events {
			if ev.ID == *cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, errors.New("unknown cursor")
		}
	}
	end := start + limit
	if end > len(f.events) {
		end = len(f.events)
	}
	page := &EventPage{
		Data:        append([]Event(nil), f.events[start:end]...),
		HasNextPage: end < len(f.events),
	}
	if end > start {
		last := f.events[end-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func (f *fakeTarget) ObjectRef(_ context.Context, id types.ObjectID) (types.ObjectRef, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.resolves++
	ref, ok := f.objects[id]
	if !ok {
		return types.ObjectRef{}, fmt.Errorf("object %v not found", id)
	}
	return ref, nil
}

func (f *fakeTarget) Submit(_ context.Context, sub *Submission) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.submissions = append(f.submissions, sub)
	f.pending = append(f.pending, sub.Epoch)
	f.sinceSubmit = 0
	return nil
}

func (f *fakeTarget) submittedEpochs() []uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	epochs := make([]uint64, 0, len(f.submissions))
	for _, sub := range f.submissions {
		epochs = append(epochs, sub.Epoch)
	}
	return epochs
}
