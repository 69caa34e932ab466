package light

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/light/store"
	"github.com/lightrelay/lightrelay/types"
)

// Bootstrap seeds an empty checkpoint list. The seeds are appended when
// given; otherwise the end of the first verifiable epoch is looked up with
// index. A non-empty list is left untouched.
//
// The resulting list is returned.
func Bootstrap(
	ctx context.Context,
	st store.Store,
	index provider.EpochIndex,
	seeds []uint64,
) ([]uint64, error) {
	list, err := st.CheckpointList()
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}

	if len(seeds) == 0 {
		if index == nil {
			return nil, errors.New("no checkpoint to seed the list with")
		}
		seq, err := index.LastCheckpointOfEpoch(ctx, types.FirstVerificationEpoch)
		if err != nil {
			return nil, fmt.Errorf("end of epoch %d: %w", types.FirstVerificationEpoch, err)
		}
		seeds = []uint64{seq}
	}

	for _, seq := range seeds {
		if err := st.AppendCheckpoint(seq); err != nil {
			return nil, err
		}
	}
	return st.CheckpointList()
}
