package types

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewCommittee(t *testing.T) {
	c, _ := RandCommittee(3, 4, 10)
	a, b := c.Members[0], c.Members[1]

	testCases := []struct {
		name    string
		members []Authority
		wantErr bool
	}{
		{"empty", nil, true},
		{"zero stake", []Authority{{Name: a.Name, Stake: 0}}, true},
		{"duplicate", []Authority{a, a}, true},
		{"overflow", []Authority{{Name: a.Name, Stake: math.MaxUint64}, {Name: b.Name, Stake: 1}}, true},
		{"ok", []Authority{b, a}, false},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewCommittee(7, tc.members)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, 7, got.Epoch)
			assert.EqualValues(t, 20, got.TotalStake())
			// members are ordered by name whatever the input order
			assert.Equal(t, []Authority{a, b}, got.Members)
			i, ok := got.IndexOf(b.Name)
			assert.True(t, ok)
			assert.Equal(t, 1, i)
		})
	}
}

func TestNewCommitteeDoesNotRetainInput(t *testing.T) {
	c, _ := RandCommittee(1, 2, 5)
	in := []Authority{c.Members[1], c.Members[0]}
	got, err := NewCommittee(1, in)
	require.NoError(t, err)
	in[0].Stake = 99
	assert.EqualValues(t, 10, got.TotalStake())
	assert.EqualValues(t, 5, got.Members[1].Stake)
}

func TestQuorumThreshold(t *testing.T) {
	testCases := []struct {
		total uint64
		want  uint64
	}{
		{1, 1},
		{3, 3},
		{4, 3},
		{5, 4},
		{100, 67},
		{10000, 6667},
	}
	for _, tc := range testCases {
		c := &Committee{totalStake: tc.total}
		assert.Equal(t, tc.want, c.QuorumThreshold(), "total %d", tc.total)
	}
}

// The threshold is the smallest stake strictly above two thirds of the
// total, including totals where 2*total overflows uint64.
func TestQuorumThresholdProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Uint64Range(1, math.MaxUint64).Draw(t, "total").(uint64)
		c := &Committee{totalStake: total}
		q := new(big.Int).SetUint64(c.QuorumThreshold())

		twoThirds := new(big.Int).Mul(new(big.Int).SetUint64(total), big.NewInt(2))
		// 3*q > 2*total
		if new(big.Int).Mul(q, big.NewInt(3)).Cmp(twoThirds) <= 0 {
			t.Fatalf("threshold %v too low for total %d", q, total)
		}
		// 3*(q-1) <= 2*total
		prev := new(big.Int).Sub(q, big.NewInt(1))
		if new(big.Int).Mul(prev, big.NewInt(3)).Cmp(twoThirds) > 0 {
			t.Fatalf("threshold %v too high for total %d", q, total)
		}
	})
}

func TestAuthorityNameText(t *testing.T) {
	c, _ := RandCommittee(1, 1, 1)
	name := c.Members[0].Name

	text, err := name.MarshalText()
	require.NoError(t, err)

	var parsed AuthorityName
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, name, parsed)

	require.Error(t, parsed.UnmarshalText([]byte("abcd")))
}
