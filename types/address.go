package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressSize is the size in bytes of account addresses and object ids.
const AddressSize = 32

// Address identifies an account, a package or an object.
type Address [AddressSize]byte

// ObjectID is the address of an on-chain object.
type ObjectID = Address

// AddressFromHex parses a 0x prefixed (or bare) hex string. Short inputs are
// left padded with zeroes, so "0x2" is a valid address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	bz, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(bz) > AddressSize {
		return a, fmt.Errorf("invalid address %q: too long", s)
	}
	copy(a[AddressSize-len(bz):], bz)
	return a, nil
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := AddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ObjectRef pins an object at a specific version.
type ObjectRef struct {
	_        struct{} `cbor:",toarray"`
	ObjectID ObjectID `json:"objectId"`
	Version  uint64   `json:"version"`
	Digest   Digest   `json:"digest"`
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("%v@%d#%v", r.ObjectID, r.Version, r.Digest)
}
