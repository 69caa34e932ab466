package bridge

import (
	"context"

	lru "github.com/hashicorp/golang-lru"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/types"
)

// ObjectResolver looks up the current reference of a target chain object.
type ObjectResolver interface {
	ObjectRef(ctx context.Context, id types.ObjectID) (types.ObjectRef, error)
}

// Registry reads the committees registered on the target chain from the
// registration events of one registry object.
type Registry struct {
	id       types.ObjectID
	events   *EventIterator
	resolver ObjectResolver
	logger   log.Logger

	// epoch => types.ObjectRef
	committees *lru.Cache
}

// NewRegistry returns a Registry keeping up to cacheSize committee
// references in memory.
func NewRegistry(
	id types.ObjectID,
	events *EventIterator,
	resolver ObjectResolver,
	cacheSize int,
	logger log.Logger,
) (*Registry, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{
		id:         id,
		events:     events,
		resolver:   resolver,
		logger:     logger,
		committees: cache,
	}, nil
}

// scan calls fn on every registration of this registry, skipping events
// of other registries and events that are not registrations.
func (r *Registry) scan(ctx context.Context, fn func(Registration) bool) error {
	return r.events.Scan(ctx, func(ev Event) (bool, error) {
		reg, ok, err := ParseRegistration(ev)
		if err != nil {
			return true, err
		}
		if !ok || reg.RegistryID != r.id {
			return false, nil
		}
		return fn(reg), nil
	})
}

// HighestRegisteredEpoch returns the highest epoch registered, or
// ErrNoRegisteredEpoch if there is none.
func (r *Registry) HighestRegisteredEpoch(ctx context.Context) (uint64, error) {
	var (
		highest uint64
		found   bool
	)
	err := r.scan(ctx, func(reg Registration) bool {
		if !found || reg.Epoch > highest {
			highest = reg.Epoch
		}
		found = true
		return false
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoRegisteredEpoch
	}
	return highest, nil
}

// CommitteeObject returns the reference of the committee object registered
// at epoch. Lookups stop at the first matching event and their results are
// cached: registrations are never rewritten.
func (r *Registry) CommitteeObject(ctx context.Context, epoch uint64) (types.ObjectRef, error) {
	if v, ok := r.committees.Get(epoch); ok {
		return v.(types.ObjectRef), nil
	}

	var (
		id    types.ObjectID
		found bool
	)
	err := r.scan(ctx, func(reg Registration) bool {
		if reg.Epoch != epoch || reg.CommitteeID.IsZero() {
			return false
		}
		id, found = reg.CommitteeID, true
		return true
	})
	if err != nil {
		return types.ObjectRef{}, err
	}
	if !found {
		return types.ObjectRef{}, ErrCommitteeNotRegistered{Epoch: epoch}
	}

	ref, err := r.resolver.ObjectRef(ctx, id)
	if err != nil {
		return types.ObjectRef{}, err
	}
	r.logger.Debug("resolved committee object", "epoch", epoch, "ref", ref)
	r.committees.Add(epoch, ref)
	return ref, nil
}

// ID returns the registry object id.
func (r *Registry) ID() types.ObjectID {
	return r.id
}
