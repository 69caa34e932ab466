package light

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/light/provider/mock"
	"github.com/lightrelay/lightrelay/light/store"
	dbs "github.com/lightrelay/lightrelay/light/store/db"
	"github.com/lightrelay/lightrelay/types"
)

// publish adds, for each (epoch, seq, closes) triple, a checkpoint to chain.
func publish(t *testing.T, chain *mock.Chain, checkpoints ...[3]uint64) {
	t.Helper()
	c, keys := types.RandCommittee(1, 4, 10)
	for _, cp := range checkpoints {
		var next *types.Committee
		if cp[2] == 1 {
			next = c
		}
		data, err := types.MakeCheckpointData(cp[0], cp[1], 0, next, c, keys)
		require.NoError(t, err)
		chain.Add(data)
	}
}

type failingIndex struct {
	provider.EpochIndex
	failEpoch uint64
}

func (f failingIndex) LastCheckpointOfEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	if epoch == f.failEpoch {
		return 0, provider.ErrFetchTimeout
	}
	return f.EpochIndex.LastCheckpointOfEpoch(ctx, epoch)
}

func newGapSync(st store.Store, chain *mock.Chain, index provider.EpochIndex) *GapSync {
	return NewGapSync(st, chain, index, log.TestingLogger(), NopMetrics())
}

// List [100] where 100 closes epoch 5 and the head is in epoch 8: the ends
// of epochs 6 and 7 get appended, in order.
func TestGapSyncAppendsMissingEpochEnds(t *testing.T) {
	chain := mock.New()
	publish(t, chain,
		[3]uint64{5, 100, 1},
		[3]uint64{6, 150, 1},
		[3]uint64{7, 200, 1},
		[3]uint64{8, 230, 0},
	)
	st := dbs.New(dbm.NewMemDB(), "")
	require.NoError(t, st.AppendCheckpoint(100))

	appended, err := newGapSync(st, chain, chain).SyncToHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{150, 200}, appended)

	list, err := st.CheckpointList()
	require.NoError(t, err)
	assert.Equal(t, []uint64{100, 150, 200}, list)

	// nothing new on the chain: the list stays as is
	appended, err = newGapSync(st, chain, chain).SyncToHead(context.Background())
	require.NoError(t, err)
	assert.Empty(t, appended)

	// epoch 8 closes, head moves into epoch 9
	publish(t, chain, [3]uint64{8, 260, 1}, [3]uint64{9, 270, 0})
	appended, err = newGapSync(st, chain, chain).SyncToHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{260}, appended)
}

func TestGapSyncHeadInNextEpoch(t *testing.T) {
	chain := mock.New()
	publish(t, chain, [3]uint64{5, 100, 1}, [3]uint64{6, 120, 0})
	st := dbs.New(dbm.NewMemDB(), "")
	require.NoError(t, st.AppendCheckpoint(100))

	appended, err := newGapSync(st, chain, chain).SyncToHead(context.Background())
	require.NoError(t, err)
	assert.Empty(t, appended)
}

func TestGapSyncEmptyList(t *testing.T) {
	chain := mock.New()
	publish(t, chain, [3]uint64{1, 10, 0})

	_, err := newGapSync(dbs.New(dbm.NewMemDB(), ""), chain, chain).SyncToHead(context.Background())
	var syncErr ErrSync
	require.True(t, errors.As(err, &syncErr))
	assert.True(t, errors.Is(err, store.ErrEmptyList))
}

func TestGapSyncResumesAfterFailure(t *testing.T) {
	chain := mock.New()
	publish(t, chain,
		[3]uint64{5, 100, 1},
		[3]uint64{6, 150, 1},
		[3]uint64{7, 200, 1},
		[3]uint64{8, 230, 0},
	)
	st := dbs.New(dbm.NewMemDB(), "")
	require.NoError(t, st.AppendCheckpoint(100))

	appended, err := newGapSync(st, chain, failingIndex{EpochIndex: chain, failEpoch: 7}).SyncToHead(context.Background())
	var syncErr ErrSync
	require.True(t, errors.As(err, &syncErr))
	assert.True(t, errors.Is(err, provider.ErrFetchTimeout))
	assert.Equal(t, []uint64{150}, appended)

	list, err := st.CheckpointList()
	require.NoError(t, err)
	assert.Equal(t, []uint64{100, 150}, list)

	appended, err = newGapSync(st, chain, chain).SyncToHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{200}, appended)
}

func TestGapSyncHeadUnavailable(t *testing.T) {
	chain := mock.New()
	publish(t, chain, [3]uint64{5, 100, 1})
	st := dbs.New(dbm.NewMemDB(), "")
	require.NoError(t, st.AppendCheckpoint(100))
	chain.SetError(provider.ErrFetchTimeout)

	_, err := newGapSync(st, chain, chain).SyncToHead(context.Background())
	var syncErr ErrSync
	assert.True(t, errors.As(err, &syncErr))
}
