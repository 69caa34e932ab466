package crypto

import (
	"golang.org/x/crypto/blake2b"
)

const (
	// HashSize is the size in bytes of a Checksum.
	HashSize = blake2b.Size256
)

// Checksum returns the Blake2b-256 hash of bz.
func Checksum(bz []byte) [HashSize]byte {
	return blake2b.Sum256(bz)
}

type PubKey interface {
	Bytes() []byte
	VerifySignature(msg []byte, sig []byte) bool
	Equals(PubKey) bool
	Type() string
}

type PrivKey interface {
	Bytes() []byte
	Sign(msg []byte) ([]byte, error)
	PubKey() PubKey
	Equals(PrivKey) bool
	Type() string
}
