package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCertificate(t *testing.T) {
	// stakes 40, 30, 20, 10 before sorting; look them up after
	c, privKeys := RandCommitteeWithStakes(5, 40, 30, 20, 10)
	next, _ := RandCommittee(6, 3, 1)
	s := MakeCheckpointSummary(5, 1000, next)

	all, err := SignCheckpointSummary(s, c, privKeys)
	require.NoError(t, err)
	require.NoError(t, all.VerifyAuthoritySignatures(c))

	t.Run("insufficient stake", func(t *testing.T) {
		// 40 + 20 out of 100 is below the threshold of 67
		var (
			signers []int
			stake   uint64
		)
		for i, m := range c.Members {
			if m.Stake == 40 || m.Stake == 20 {
				signers = append(signers, i)
				stake += m.Stake
			}
		}
		require.EqualValues(t, 60, stake)

		cert, err := SignCheckpointSummary(s, c, privKeys, signers...)
		require.NoError(t, err)
		err = cert.VerifyAuthoritySignatures(c)
		var notEnough ErrNotEnoughStake
		require.True(t, errors.As(err, &notEnough), err)
		assert.Equal(t, stake, notEnough.Got)
		assert.Equal(t, c.QuorumThreshold(), notEnough.Needed)
	})

	t.Run("epoch mismatch", func(t *testing.T) {
		other, err := NewCommittee(6, c.Members)
		require.NoError(t, err)
		err = all.VerifyAuthoritySignatures(other)
		assert.ErrorAs(t, err, &ErrEpochMismatch{})
	})

	t.Run("tampered summary", func(t *testing.T) {
		tampered := *all
		tampered.Summary.TimestampMs++
		assert.ErrorIs(t, tampered.VerifyAuthoritySignatures(c), ErrInvalidSignature)
	})

	t.Run("signer claims to be someone else", func(t *testing.T) {
		// signature of members 0,1,2 claimed by 1,2,3
		cert, err := SignCheckpointSummary(s, c, privKeys, 0, 1, 2)
		require.NoError(t, err)
		cert.AuthSig.SignersMap = NewSignersMap(1, 2, 3)
		err = cert.VerifyAuthoritySignatures(c)
		if !errors.Is(err, ErrInvalidSignature) {
			// members 1,2,3 may not reach quorum, which is also a rejection
			assert.ErrorAs(t, err, &ErrNotEnoughStake{})
		}
	})

	t.Run("signer out of range", func(t *testing.T) {
		cert := *all
		cert.AuthSig.SignersMap = NewSignersMap(0, 1, 2, 3, 4)
		assert.ErrorIs(t, cert.VerifyAuthoritySignatures(c), ErrInvalidSignersMap)
	})

	t.Run("signers map length beyond committee", func(t *testing.T) {
		cert := *all
		cert.AuthSig.SignersMap = []byte{0x40, 0, 0, 0, 0, 0, 0, 0}
		assert.ErrorIs(t, cert.VerifyAuthoritySignatures(c), ErrInvalidSignersMap)
		cert.AuthSig.SignersMap = []byte{0, 0, 0, 0, 0x10, 0, 0, 0}
		assert.ErrorIs(t, cert.VerifyAuthoritySignatures(c), ErrInvalidSignersMap)
	})

	t.Run("garbage signers map", func(t *testing.T) {
		cert := *all
		cert.AuthSig.SignersMap = []byte{1, 2}
		assert.ErrorIs(t, cert.VerifyAuthoritySignatures(c), ErrInvalidSignersMap)
	})
}

func TestCertifiedCheckpointSummaryEncodingIsStable(t *testing.T) {
	c, privKeys := RandCommittee(1, 4, 1)
	next, _ := RandCommittee(2, 4, 1)
	cert, err := SignCheckpointSummary(MakeCheckpointSummary(1, 42, next), c, privKeys)
	require.NoError(t, err)

	bz, err := cert.Bytes()
	require.NoError(t, err)

	decoded, err := CertifiedCheckpointSummaryFromBytes(bz)
	require.NoError(t, err)
	bz2, err := decoded.Bytes()
	require.NoError(t, err)
	assert.Equal(t, bz, bz2)
	assert.Equal(t, cert.Summary.Digest(), decoded.Summary.Digest())
	require.NoError(t, decoded.VerifyAuthoritySignatures(c))

	_, err = CertifiedCheckpointSummaryFromBytes(bz[:len(bz)-1])
	assert.Error(t, err)
}

func TestNextCommittee(t *testing.T) {
	next, _ := RandCommittee(99, 3, 7)

	s := MakeCheckpointSummary(4, 10, next)
	got, err := s.NextCommittee()
	require.NoError(t, err)
	// epoch is derived from the summary, not from the announced members
	assert.EqualValues(t, 5, got.Epoch)
	assert.Equal(t, next.Members, got.Members)

	s = MakeCheckpointSummary(4, 11, nil)
	_, err = s.NextCommittee()
	assert.ErrorIs(t, err, ErrNoEndOfEpochData)
}

func TestVerifyWithContents(t *testing.T) {
	c, privKeys := RandCommittee(1, 4, 1)
	data, err := MakeCheckpointData(1, 7, 3, nil, c, privKeys)
	require.NoError(t, err)

	require.NoError(t, data.Checkpoint.VerifyWithContents(c, data.Contents))

	contents := append(CheckpointContents{}, data.Contents...)
	contents[1].Effects[0] ^= 0xff
	assert.ErrorAs(t, data.Checkpoint.VerifyWithContents(c, contents), &ErrContentDigestMismatch{})
}

func TestCheckpointSigningBytes(t *testing.T) {
	s := MakeCheckpointSummary(3, 1, nil)
	msg, err := CheckpointSigningBytes(&s, 3)
	require.NoError(t, err)

	enc, err := Encode(&s)
	require.NoError(t, err)
	require.Len(t, msg, 3+len(enc)+8)
	assert.Equal(t, []byte{2, 0, 0}, msg[:3])
	assert.Equal(t, enc, msg[3:3+len(enc)])
	assert.Equal(t, []byte{3, 0, 0, 0, 0, 0, 0, 0}, msg[len(msg)-8:])
}
