// Package storetest holds the behaviour every store.Store implementation
// must share. Backends run it from their own tests.
package storetest

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightrelay/lightrelay/light/store"
	"github.com/lightrelay/lightrelay/types"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("EmptyList", func(t *testing.T) { testEmptyList(t, newStore(t)) })
	t.Run("AppendOrder", func(t *testing.T) { testAppendOrder(t, newStore(t)) })
	t.Run("SaveAndLoad", func(t *testing.T) { testSaveAndLoad(t, newStore(t)) })
	t.Run("SaveConflict", func(t *testing.T) { testSaveConflict(t, newStore(t)) })
	t.Run("CheckpointBefore", func(t *testing.T) { testCheckpointBefore(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
}

// MakeSummary returns a certified summary of seq signed by a fresh committee.
func MakeSummary(t *testing.T, epoch, seq uint64) *types.CertifiedCheckpointSummary {
	t.Helper()
	c, keys := types.RandCommittee(epoch, 4, 10)
	cert, err := types.SignCheckpointSummary(types.MakeCheckpointSummary(epoch, seq, nil), c, keys)
	require.NoError(t, err)
	return cert
}

func testEmptyList(t *testing.T, s store.Store) {
	list, err := s.CheckpointList()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.LastCheckpoint()
	assert.Equal(t, store.ErrEmptyList, err)

	_, err = s.Checkpoint(1)
	assert.Equal(t, store.ErrCheckpointNotFound, err)
}

func testAppendOrder(t *testing.T, s store.Store) {
	require.NoError(t, s.AppendCheckpoint(100))
	require.NoError(t, s.AppendCheckpoint(250))

	err := s.AppendCheckpoint(250)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrOutOfOrder))
	var serr store.ErrStorage
	assert.True(t, errors.As(err, &serr))

	err = s.AppendCheckpoint(99)
	assert.True(t, errors.Is(err, store.ErrOutOfOrder))

	require.NoError(t, s.AppendCheckpoint(300))

	list, err := s.CheckpointList()
	require.NoError(t, err)
	assert.Equal(t, []uint64{100, 250, 300}, list)

	last, err := s.LastCheckpoint()
	require.NoError(t, err)
	assert.EqualValues(t, 300, last)
}

func testSaveAndLoad(t *testing.T, s store.Store) {
	cert := MakeSummary(t, 3, 42)
	require.NoError(t, s.SaveCheckpoint(42, cert))
	// identical save is a no-op
	require.NoError(t, s.SaveCheckpoint(42, cert))

	got, err := s.Checkpoint(42)
	require.NoError(t, err)
	assert.Equal(t, cert.Summary.Digest(), got.Summary.Digest())
	assert.Equal(t, cert.AuthSig.Signature, got.AuthSig.Signature)

	// saving under the wrong seq is refused
	assert.Error(t, s.SaveCheckpoint(43, cert))
}

func testSaveConflict(t *testing.T, s store.Store) {
	require.NoError(t, s.SaveCheckpoint(7, MakeSummary(t, 1, 7)))

	err := s.SaveCheckpoint(7, MakeSummary(t, 2, 7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrConflict))

	got, err := s.Checkpoint(7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Epoch())
}

func testCheckpointBefore(t *testing.T, s store.Store) {
	for _, seq := range []uint64{10, 20, 30} {
		require.NoError(t, s.AppendCheckpoint(seq))
		require.NoError(t, s.SaveCheckpoint(seq, MakeSummary(t, seq/10, seq)))
	}

	got, err := s.CheckpointBefore(25)
	require.NoError(t, err)
	assert.EqualValues(t, 20, got.SequenceNumber())

	got, err = s.CheckpointBefore(30)
	require.NoError(t, err)
	assert.EqualValues(t, 20, got.SequenceNumber())

	got, err = s.CheckpointBefore(1000)
	require.NoError(t, err)
	assert.EqualValues(t, 30, got.SequenceNumber())

	_, err = s.CheckpointBefore(10)
	assert.Equal(t, store.ErrCheckpointNotFound, err)
}

func testConcurrentAppends(t *testing.T, s store.Store) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AppendCheckpoint(5)
		}()
	}
	wg.Wait()

	list, err := s.CheckpointList()
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, list)
}
