package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lightrelay/lightrelay/crypto/bls12381"
)

// AuthorityName is the compressed BLS public key identifying a validator.
type AuthorityName [bls12381.PubKeySize]byte

// AuthorityNameFromHex parses a hex encoded authority public key.
func AuthorityNameFromHex(s string) (AuthorityName, error) {
	var name AuthorityName
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return name, fmt.Errorf("invalid authority name: %w", err)
	}
	if len(bz) != len(name) {
		return name, fmt.Errorf("invalid authority name: expected %d bytes, got %d", len(name), len(bz))
	}
	copy(name[:], bz)
	return name, nil
}

// PubKey returns the name as a verifiable public key.
func (n AuthorityName) PubKey() bls12381.PubKey {
	return bls12381.PubKey(n[:])
}

func (n AuthorityName) String() string {
	return hex.EncodeToString(n[:])
}

func (n AuthorityName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *AuthorityName) UnmarshalText(text []byte) error {
	parsed, err := AuthorityNameFromHex(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Authority is a committee member and its stake.
type Authority struct {
	_     struct{}      `cbor:",toarray"`
	Name  AuthorityName `json:"name"`
	Stake uint64        `json:"stake"`
}

// Committee is the set of authorities entitled to certify checkpoints during
// one epoch. Members are ordered by name; signer bitmaps index into that
// order.
//
// A Committee is immutable once built.
type Committee struct {
	Epoch   uint64
	Members []Authority

	index      map[AuthorityName]int
	totalStake uint64
}

// NewCommittee validates members and returns a committee for epoch. The
// input slice is not retained.
func NewCommittee(epoch uint64, members []Authority) (*Committee, error) {
	if len(members) == 0 {
		return nil, errors.New("committee must have at least one member")
	}

	sorted := make([]Authority, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Name[:], sorted[j].Name[:]) < 0
	})

	c := &Committee{
		Epoch:   epoch,
		Members: sorted,
		index:   make(map[AuthorityName]int, len(sorted)),
	}
	for i, m := range sorted {
		if m.Stake == 0 {
			return nil, fmt.Errorf("authority %v has zero stake", m.Name)
		}
		if _, dup := c.index[m.Name]; dup {
			return nil, fmt.Errorf("duplicate authority %v", m.Name)
		}
		if c.totalStake > math.MaxUint64-m.Stake {
			return nil, errors.New("total stake overflows uint64")
		}
		c.index[m.Name] = i
		c.totalStake += m.Stake
	}

	return c, nil
}

// Size returns the number of members.
func (c *Committee) Size() int {
	return len(c.Members)
}

// TotalStake returns the sum of all members' stake.
func (c *Committee) TotalStake() uint64 {
	return c.totalStake
}

// QuorumThreshold returns the smallest stake strictly greater than two
// thirds of the total.
func (c *Committee) QuorumThreshold() uint64 {
	t := c.totalStake
	return t/3*2 + (t%3)*2/3 + 1
}

// IndexOf returns the position of name in the committee.
func (c *Committee) IndexOf(name AuthorityName) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Digest returns a digest identifying the epoch and membership.
func (c *Committee) Digest() Digest {
	d, err := DigestOf(struct {
		_       struct{} `cbor:",toarray"`
		Epoch   uint64
		Members []Authority
	}{Epoch: c.Epoch, Members: c.Members})
	if err != nil {
		panic(err)
	}
	return d
}

func (c *Committee) String() string {
	if c == nil {
		return "nil-Committee"
	}
	return fmt.Sprintf("Committee{epoch: %d, members: %d, stake: %d}", c.Epoch, len(c.Members), c.totalStake)
}
