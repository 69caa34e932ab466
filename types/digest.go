package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lightrelay/lightrelay/crypto"
)

// DigestSize is the size in bytes of every content digest.
const DigestSize = crypto.HashSize

// Digest is a Blake2b-256 hash over the canonical encoding of a value.
type Digest [DigestSize]byte

// ZeroDigest is the all-zero digest.
var ZeroDigest Digest

// DigestOf returns the digest of the canonical encoding of v.
func DigestOf(v interface{}) (Digest, error) {
	bz, err := Encode(v)
	if err != nil {
		return ZeroDigest, err
	}
	return Digest(crypto.Checksum(bz)), nil
}

// DigestFromHex parses a hex string, with or without a 0x prefix.
func DigestFromHex(s string) (Digest, error) {
	var d Digest
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(bz) != DigestSize {
		return d, fmt.Errorf("invalid digest %q: expected %d bytes, got %d", s, DigestSize, len(bz))
	}
	copy(d[:], bz)
	return d, nil
}

func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

func (d Digest) Bytes() []byte {
	return d[:]
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the digest as lowercase hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex digest.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := DigestFromHex(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
