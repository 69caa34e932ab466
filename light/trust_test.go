package light

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lightrelay/lightrelay/crypto/bls12381"
	"github.com/lightrelay/lightrelay/types"
)

func certify(t require.TestingT, s types.CheckpointSummary, c *types.Committee, keys []bls12381.PrivKey, signers ...int) *types.CertifiedCheckpointSummary {
	cert, err := types.SignCheckpointSummary(s, c, keys, signers...)
	require.NoError(t, err)
	return cert
}

func newTrustChain(t *testing.T, c *types.Committee) *TrustChain {
	tc := NewTrustChain()
	require.NoError(t, tc.Initialize(c))
	return tc
}

func TestTrustChainInitialize(t *testing.T) {
	genesis, _ := types.RandCommittee(1, 4, 10)
	tc := NewTrustChain()
	assert.Nil(t, tc.Committee())

	_, err := tc.VerifyAndAdvance(&types.CertifiedCheckpointSummary{})
	assert.Equal(t, ErrUninitialized, err)

	require.NoError(t, tc.Initialize(genesis))
	assert.Equal(t, ErrAlreadyInitialized, tc.Initialize(genesis))
	assert.Equal(t, genesis, tc.Committee())
}

// Genesis committee at epoch 1: a valid end-of-epoch checkpoint A moves
// trust to the committee it announces; A' with a forged signature is
// rejected and trust stays put.
func TestTrustChainAdvancesOnValidEndOfEpoch(t *testing.T) {
	genesis, keys := types.RandCommittee(types.FirstVerificationEpoch, 4, 10)
	next, _ := types.RandCommittee(2, 4, 10)
	_, forgers := types.RandCommittee(1, 4, 10)

	summary := types.MakeCheckpointSummary(1, 10, next)

	forged := NewTrustChain()
	require.NoError(t, forged.Initialize(genesis))
	_, err := forged.VerifyAndAdvance(certify(t, summary, genesis, forgers))
	var verr ErrVerification
	require.True(t, errors.As(err, &verr))
	assert.EqualValues(t, 10, verr.Seq)
	assert.True(t, errors.Is(err, types.ErrInvalidSignature))
	assert.Equal(t, genesis, forged.Committee())
	assert.Nil(t, forged.LastVerified())

	tc := newTrustChain(t, genesis)
	got, err := tc.VerifyAndAdvance(certify(t, summary, genesis, keys))
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Epoch)
	assert.Equal(t, next.Digest(), got.Digest())
	assert.Equal(t, got, tc.Committee())
	assert.EqualValues(t, 10, tc.LastVerified().SequenceNumber())
}

func TestTrustChainRejections(t *testing.T) {
	genesis, keys := types.RandCommittee(1, 4, 10)
	next, nextKeys := types.RandCommittee(2, 4, 10)

	testCases := []struct {
		name  string
		cert  func() *types.CertifiedCheckpointSummary
		check func(t *testing.T, err error)
	}{
		{
			"not end of epoch",
			func() *types.CertifiedCheckpointSummary {
				return certify(t, types.MakeCheckpointSummary(1, 10, nil), genesis, keys)
			},
			func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrNotEndOfEpoch))
			},
		},
		{
			"not enough stake",
			func() *types.CertifiedCheckpointSummary {
				return certify(t, types.MakeCheckpointSummary(1, 10, next), genesis, keys, 0, 1)
			},
			func(t *testing.T, err error) {
				var stakeErr types.ErrNotEnoughStake
				assert.True(t, errors.As(err, &stakeErr))
				assert.EqualValues(t, 20, stakeErr.Got)
			},
		},
		{
			"future epoch",
			func() *types.CertifiedCheckpointSummary {
				return certify(t, types.MakeCheckpointSummary(2, 10, next), next, nextKeys)
			},
			func(t *testing.T, err error) {
				var epochErr types.ErrEpochMismatch
				require.True(t, errors.As(err, &epochErr))
				assert.EqualValues(t, 1, epochErr.Expected)
				assert.EqualValues(t, 2, epochErr.Actual)
			},
		},
		{
			"tampered summary",
			func() *types.CertifiedCheckpointSummary {
				cert := certify(t, types.MakeCheckpointSummary(1, 10, next), genesis, keys)
				cert.Summary.NetworkTotalTransactions++
				return cert
			},
			func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, types.ErrInvalidSignature))
			},
		},
		{
			"oversized signers map header",
			func() *types.CertifiedCheckpointSummary {
				cert := certify(t, types.MakeCheckpointSummary(1, 10, next), genesis, keys)
				cert.AuthSig.SignersMap = []byte{0x40, 0, 0, 0, 0, 0, 0, 0}
				return cert
			},
			func(t *testing.T, err error) {
				var verr ErrVerification
				require.True(t, errors.As(err, &verr))
				assert.EqualValues(t, 10, verr.Seq)
				assert.True(t, errors.Is(err, types.ErrInvalidSignersMap))
			},
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			chain := newTrustChain(t, genesis)
			_, err := chain.VerifyAndAdvance(tc.cert())
			require.Error(t, err)
			tc.check(t, err)
			assert.Equal(t, genesis, chain.Committee())
		})
	}
}

func TestTrustChainRejectsOutOfOrder(t *testing.T) {
	genesis, keys := types.RandCommittee(1, 4, 10)
	next, nextKeys := types.RandCommittee(2, 4, 10)
	third, _ := types.RandCommittee(3, 4, 10)

	tc := newTrustChain(t, genesis)
	_, err := tc.VerifyAndAdvance(certify(t, types.MakeCheckpointSummary(1, 10, next), genesis, keys))
	require.NoError(t, err)

	_, err = tc.VerifyAndAdvance(certify(t, types.MakeCheckpointSummary(2, 10, third), next, nextKeys))
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	assert.EqualValues(t, 2, tc.Committee().Epoch)

	got, err := tc.VerifyAndAdvance(certify(t, types.MakeCheckpointSummary(2, 20, third), next, nextKeys))
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Epoch)
}

// Trust advances iff the signers hold a quorum and the checkpoint closes the
// epoch; otherwise nothing changes.
func TestTrustChainAdvancesIffQuorumAndEndOfEpoch(t *testing.T) {
	genesis, keys := types.RandCommitteeWithStakes(1, 1, 2, 3, 5, 8)
	next, _ := types.RandCommittee(2, 2, 1)

	rapid.Check(t, func(t *rapid.T) {
		var (
			signers []int
			stake   uint64
		)
		for i, m := range genesis.Members {
			if rapid.Bool().Draw(t, "signs").(bool) {
				signers = append(signers, i)
				stake += m.Stake
			}
		}
		if len(signers) == 0 {
			return
		}
		var announced *types.Committee
		eoe := rapid.Bool().Draw(t, "eoe").(bool)
		if eoe {
			announced = next
		}

		cert := certify(t, types.MakeCheckpointSummary(1, 5, announced), genesis, keys, signers...)
		tc := NewTrustChain()
		if err := tc.Initialize(genesis); err != nil {
			t.Fatal(err)
		}

		got, err := tc.VerifyAndAdvance(cert)
		if stake >= genesis.QuorumThreshold() && eoe {
			if err != nil {
				t.Fatalf("stake %d of %d: %v", stake, genesis.TotalStake(), err)
			}
			if got.Epoch != 2 || tc.Committee() != got {
				t.Fatalf("did not advance to epoch 2")
			}
			return
		}
		if err == nil {
			t.Fatalf("stake %d of %d, eoe %v: accepted", stake, genesis.TotalStake(), eoe)
		}
		if tc.Committee() != genesis || tc.LastVerified() != nil {
			t.Fatalf("state changed after %v", err)
		}
	})
}
