package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light"
	"github.com/lightrelay/lightrelay/light/provider/mock"
	dbs "github.com/lightrelay/lightrelay/light/store/db"
	"github.com/lightrelay/lightrelay/types"
)

func newRelayer(t *testing.T, target *fakeTarget, options ...RelayerOption) *Relayer {
	t.Helper()
	options = append([]RelayerOption{
		RelayerLogger(log.TestingLogger()),
		ConfirmPolicy(time.Millisecond, 200*time.Millisecond),
	}, options...)
	return NewRelayer(newRegistry(t, target), target, options...)
}

func endOfEpoch(t *testing.T, epoch, seq uint64) *types.CertifiedCheckpointSummary {
	t.Helper()
	c, keys := types.RandCommittee(epoch, 4, 10)
	next, _ := types.RandCommittee(epoch+1, 4, 10)
	cert, err := types.SignCheckpointSummary(types.MakeCheckpointSummary(epoch, seq, next), c, keys)
	require.NoError(t, err)
	return cert
}

func TestRelayerSubmitsOnceAndWaits(t *testing.T) {
	ctx := context.Background()
	target := newFakeTarget(0, 1)
	target.confirmAfter = 3
	r := newRelayer(t, target)

	highest, err := r.HighestRegisteredEpoch(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, highest)

	s := endOfEpoch(t, 2, 20)
	highest, err = r.Relay(ctx, s, highest)
	require.NoError(t, err)
	assert.EqualValues(t, 2, highest)
	assert.Equal(t, []uint64{2}, target.submittedEpochs())

	sub := target.submissions[0]
	assert.Equal(t, testRegistry, sub.RegistryID)
	assert.Equal(t, target.objects[committeeID(1)], sub.PreviousCommittee)
	assert.EqualValues(t, 20, sub.SequenceNumber)
	decoded, err := types.CertifiedCheckpointSummaryFromBytes(sub.Summary)
	require.NoError(t, err)
	assert.Equal(t, s.Summary.Digest(), decoded.Summary.Digest())
}

func TestRelayerSkipsRegisteredEpochs(t *testing.T) {
	target := newFakeTarget(0, 1, 2)
	r := newRelayer(t, target)

	highest, err := r.Relay(context.Background(), endOfEpoch(t, 2, 20), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, highest)
	assert.Empty(t, target.submissions)
	assert.Zero(t, target.queries)
}

func TestRelayerNotConfirmed(t *testing.T) {
	target := newFakeTarget(0)
	target.confirmAfter = -1
	r := newRelayer(t, target, ConfirmPolicy(time.Millisecond, 20*time.Millisecond))

	highest, err := r.Relay(context.Background(), endOfEpoch(t, 1, 10), 0)
	assert.True(t, errors.Is(err, ErrRelayNotConfirmed))
	assert.Zero(t, highest)
	assert.Equal(t, []uint64{1}, target.submittedEpochs())
}

func TestRelayerZeroConfirmInterval(t *testing.T) {
	target := newFakeTarget(0)
	r := newRelayer(t, target, ConfirmPolicy(0, 20*time.Millisecond))

	_, err := r.Relay(context.Background(), endOfEpoch(t, 1, 10), 0)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRelayNotConfirmed))
	assert.Equal(t, []uint64{1}, target.submittedEpochs())
}

func TestRelayerPreviousCommitteeMissing(t *testing.T) {
	target := newFakeTarget(0)
	r := newRelayer(t, target)

	_, err := r.Relay(context.Background(), endOfEpoch(t, 3, 30), 0)
	var notRegistered ErrCommitteeNotRegistered
	require.True(t, errors.As(err, &notRegistered))
	assert.EqualValues(t, 2, notRegistered.Epoch)
	assert.Empty(t, target.submissions)
}

func TestRelayerWithoutConfirmation(t *testing.T) {
	ctx := context.Background()
	target := newFakeTarget(0)
	target.confirmAfter = -1
	r := newRelayer(t, target, WithoutConfirmation())

	highest, err := r.HighestRegisteredEpoch(ctx)
	require.NoError(t, err)

	highest, err = r.Relay(ctx, endOfEpoch(t, 1, 10), highest)
	require.NoError(t, err)
	assert.EqualValues(t, 1, highest)

	// epoch 2 chains to a committee that is not registered yet
	highest, err = r.Relay(ctx, endOfEpoch(t, 2, 20), highest)
	require.NoError(t, err)
	assert.EqualValues(t, 1, highest)
	assert.Equal(t, []uint64{1}, target.submittedEpochs())

	// once registered, the next run goes on
	target.mtx.Lock()
	target.register(1)
	target.mtx.Unlock()
	highest, err = r.HighestRegisteredEpoch(ctx)
	require.NoError(t, err)
	_, err = r.Relay(ctx, endOfEpoch(t, 2, 20), highest)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, target.submittedEpochs())
}

// A light client syncing three epochs relays each committee once, chained
// to the committee registered before it.
func TestRelayerWithLightClient(t *testing.T) {
	ctx := context.Background()
	genesis, keys := types.RandCommittee(types.FirstVerificationEpoch, 4, 10)
	g, err := mock.Generate(genesis, keys, 4, 3, 1)
	require.NoError(t, err)

	st := dbs.New(dbm.NewMemDB(), "")
	_, err = light.Bootstrap(ctx, st, g.Chain, nil)
	require.NoError(t, err)

	target := newFakeTarget(0)
	r := newRelayer(t, target)
	c, err := light.NewClient(genesis, st, g.Chain, g.Chain, light.Logger(log.TestingLogger()), light.WithRelayer(r))
	require.NoError(t, err)

	res, err := c.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Relayed)
	assert.Equal(t, []uint64{1, 2, 3}, target.submittedEpochs())
	for i, sub := range target.submissions {
		assert.Equal(t, committeeID(uint64(i)), sub.PreviousCommittee.ObjectID)
		assert.Equal(t, g.EpochEnds[i], sub.SequenceNumber)
	}

	highest, err := r.HighestRegisteredEpoch(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, highest)

	// nothing left to relay
	res, err = c.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Relayed)
	assert.Len(t, target.submissions, 3)
}
