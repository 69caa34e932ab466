package bls12381

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"

	bls "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"

	"github.com/lightrelay/lightrelay/crypto"
)

//-------------------------------------

var _ crypto.PrivKey = PrivKey{}

const (
	// PubKeySize is the size, in bytes, of a compressed G2 public key.
	PubKeySize = bls.SizeOfG2AffineCompressed
	// PrivateKeySize is the size, in bytes, of a private scalar.
	PrivateKeySize = fr.Bytes
	// SignatureSize is the size, in bytes, of a compressed G1 signature.
	SignatureSize = bls.SizeOfG1AffineCompressed
	// SeedSize is the size, in bytes, of private key seeds.
	SeedSize = 32

	KeyType = "bls12381"
)

// DST is the domain separation tag of the min-sig ciphersuite: signatures
// live in G1 and public keys in G2.
var DST = []byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_")

var (
	errPubKeyIsEmpty     = errors.New("public key should not be empty")
	errPubKeyInvalidSize = errors.New("invalid public key size")
	errPubKeyInfinity    = errors.New("public key is the point at infinity")
	errSigInvalidSize    = errors.New("invalid signature size")
	errZeroScalar        = errors.New("private key is zero")
)

// PrivKey implements crypto.PrivKey. It holds a big-endian scalar.
type PrivKey []byte

// Bytes returns the privkey byte format.
func (privKey PrivKey) Bytes() []byte {
	return privKey
}

func (privKey PrivKey) scalar() (*big.Int, error) {
	if len(privKey) != PrivateKeySize {
		return nil, fmt.Errorf("incorrect private key %d bytes but expected %d bytes", len(privKey), PrivateKeySize)
	}
	var s fr.Element
	s.SetBytes(privKey)
	if s.IsZero() {
		return nil, errZeroScalar
	}
	return s.BigInt(new(big.Int)), nil
}

// Sign produces a signature on the provided message.
func (privKey PrivKey) Sign(msg []byte) ([]byte, error) {
	s, err := privKey.scalar()
	if err != nil {
		return nil, err
	}
	h, err := bls.HashToG1(msg, DST)
	if err != nil {
		return nil, err
	}
	var sig bls.G1Affine
	sig.ScalarMultiplication(&h, s)
	bz := sig.Bytes()
	return bz[:], nil
}

// PubKey gets the corresponding public key from the private key.
//
// Panics if the private key is not initialized.
func (privKey PrivKey) PubKey() crypto.PubKey {
	s, err := privKey.scalar()
	if err != nil {
		panic(err)
	}
	_, _, _, g2 := bls.Generators()
	var pk bls.G2Affine
	pk.ScalarMultiplication(&g2, s)
	bz := pk.Bytes()
	return PubKey(bz[:])
}

// Equals runs in constant time based on length of the keys.
func (privKey PrivKey) Equals(other crypto.PrivKey) bool {
	if otherBLS, ok := other.(PrivKey); ok {
		return subtle.ConstantTimeCompare(privKey[:], otherBLS[:]) == 1
	}

	return false
}

func (privKey PrivKey) Type() string {
	return KeyType
}

// GenPrivKey generates a new bls12381 private key from OS randomness.
func GenPrivKey() PrivKey {
	return genPrivKey(rand.Reader)
}

// genPrivKey generates a new bls12381 private key using the provided reader.
func genPrivKey(rand io.Reader) PrivKey {
	seed := make([]byte, SeedSize)

	_, err := io.ReadFull(rand, seed)
	if err != nil {
		panic(err)
	}
	return GenPrivKeyFromSecret(seed)
}

// GenPrivKeyFromSecret hashes the secret with Blake2b-512 and reduces the
// output modulo the group order.
// NOTE: secret should be the output of a KDF like bcrypt,
// if it's derived from user input.
func GenPrivKeyFromSecret(secret []byte) PrivKey {
	seed := blake2b.Sum512(secret)
	var s fr.Element
	s.SetBytes(seed[:])
	if s.IsZero() {
		s.SetOne()
	}
	bz := s.Bytes()
	return PrivKey(bz[:])
}

//-------------------------------------

var _ crypto.PubKey = PubKey{}

// PubKey implements crypto.PubKey for the bls12381 min-sig scheme.
type PubKey []byte

// Bytes returns the PubKey byte format.
func (pubKey PubKey) Bytes() []byte {
	return pubKey
}

// Validate checks the key decodes to a point of the G2 subgroup.
func (pubKey PubKey) Validate() error {
	_, err := pubKey.point()
	return err
}

func (pubKey PubKey) point() (bls.G2Affine, error) {
	var p bls.G2Affine
	switch {
	case len(pubKey) == 0:
		return p, errPubKeyIsEmpty
	case len(pubKey) != PubKeySize:
		return p, errPubKeyInvalidSize
	}
	if _, err := p.SetBytes(pubKey); err != nil {
		return p, err
	}
	if p.IsInfinity() {
		return p, errPubKeyInfinity
	}
	return p, nil
}

func (pubKey PubKey) VerifySignature(msg []byte, sig []byte) bool {
	return VerifyAggregate([]PubKey{pubKey}, msg, sig)
}

func (pubKey PubKey) Equals(other crypto.PubKey) bool {
	return pubKey.Type() == other.Type() && bytes.Equal(pubKey.Bytes(), other.Bytes())
}

func (pubKey PubKey) String() string {
	return fmt.Sprintf("PubKeyBLS12381{%X}", []byte(pubKey))
}

func (pubKey PubKey) Type() string {
	return KeyType
}

//-------------------------------------

// AggregateSignatures sums the given signatures into one.
func AggregateSignatures(sigs [][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, errors.New("no signatures to aggregate")
	}
	var acc bls.G1Jac
	for i, sig := range sigs {
		p, err := signaturePoint(sig)
		if err != nil {
			return nil, fmt.Errorf("signature #%d: %w", i, err)
		}
		acc.AddMixed(&p)
	}
	var out bls.G1Affine
	out.FromJacobian(&acc)
	bz := out.Bytes()
	return bz[:], nil
}

// AggregatePubKeys sums the given public keys into one.
func AggregatePubKeys(pubKeys []PubKey) (PubKey, error) {
	p, err := aggregatePoints(pubKeys)
	if err != nil {
		return nil, err
	}
	bz := p.Bytes()
	return PubKey(bz[:]), nil
}

func aggregatePoints(pubKeys []PubKey) (bls.G2Affine, error) {
	var out bls.G2Affine
	if len(pubKeys) == 0 {
		return out, errors.New("no public keys to aggregate")
	}
	var acc bls.G2Jac
	for i, pk := range pubKeys {
		p, err := pk.point()
		if err != nil {
			return out, fmt.Errorf("public key #%d: %w", i, err)
		}
		acc.AddMixed(&p)
	}
	out.FromJacobian(&acc)
	return out, nil
}

// VerifyAggregate checks that sig is the aggregate signature of every key in
// pubKeys over the same msg.
func VerifyAggregate(pubKeys []PubKey, msg []byte, sig []byte) bool {
	s, err := signaturePoint(sig)
	if err != nil {
		return false
	}
	pk, err := aggregatePoints(pubKeys)
	if err != nil {
		return false
	}
	h, err := bls.HashToG1(msg, DST)
	if err != nil {
		return false
	}
	var negH bls.G1Affine
	negH.Neg(&h)
	_, _, _, g2 := bls.Generators()

	ok, err := bls.PairingCheck([]bls.G1Affine{s, negH}, []bls.G2Affine{g2, pk})
	return err == nil && ok
}

func signaturePoint(sig []byte) (bls.G1Affine, error) {
	var p bls.G1Affine
	if len(sig) != SignatureSize {
		return p, errSigInvalidSize
	}
	if _, err := p.SetBytes(sig); err != nil {
		return p, err
	}
	if p.IsInfinity() {
		return p, errors.New("signature is the point at infinity")
	}
	return p, nil
}
