package types

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// GasCostSummary aggregates the gas charged over an epoch or a transaction.
type GasCostSummary struct {
	_                       struct{} `cbor:",toarray"`
	ComputationCost         uint64
	StorageCost             uint64
	StorageRebate           uint64
	NonRefundableStorageFee uint64
}

// EndOfEpochData is present only in the last checkpoint of an epoch and
// announces the committee of the following epoch.
type EndOfEpochData struct {
	_                        struct{} `cbor:",toarray"`
	NextEpochCommittee       []Authority
	NextEpochProtocolVersion uint64
	EpochCommitments         []Digest
}

// CheckpointSummary is the signed part of a checkpoint.
type CheckpointSummary struct {
	_                          struct{} `cbor:",toarray"`
	Epoch                      uint64
	SequenceNumber             uint64
	NetworkTotalTransactions   uint64
	ContentDigest              Digest
	PreviousDigest             *Digest
	EpochRollingGasCostSummary GasCostSummary
	TimestampMs                uint64
	EndOfEpochData             *EndOfEpochData
}

// Digest returns the digest of the canonical encoding of the summary.
func (s *CheckpointSummary) Digest() Digest {
	d, err := DigestOf(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsEndOfEpoch reports whether the summary closes its epoch.
func (s *CheckpointSummary) IsEndOfEpoch() bool {
	return s.EndOfEpochData != nil
}

// NextCommittee returns the committee announced by an end-of-epoch summary.
// Its epoch is always the summary's epoch plus one.
func (s *CheckpointSummary) NextCommittee() (*Committee, error) {
	if s.EndOfEpochData == nil {
		return nil, ErrNoEndOfEpochData
	}
	return NewCommittee(s.Epoch+1, s.EndOfEpochData.NextEpochCommittee)
}

// ValidateBasic performs stateless checks.
func (s *CheckpointSummary) ValidateBasic() error {
	if s.SequenceNumber > 0 && s.PreviousDigest == nil {
		return errors.New("missing previous digest")
	}
	if s.EndOfEpochData != nil && len(s.EndOfEpochData.NextEpochCommittee) == 0 {
		return errors.New("end of epoch data carries an empty committee")
	}
	return nil
}

func (s *CheckpointSummary) String() string {
	return fmt.Sprintf("CheckpointSummary{epoch: %d, seq: %d, eoe: %v, content: %v}",
		s.Epoch, s.SequenceNumber, s.IsEndOfEpoch(), s.ContentDigest)
}

// Intent prefixes every signed message so that a signature over one kind of
// message can not be replayed as another.
type Intent struct {
	Scope   byte
	Version byte
	AppID   byte
}

// CheckpointSummaryIntent is the intent of checkpoint certificates.
var CheckpointSummaryIntent = Intent{Scope: 2, Version: 0, AppID: 0}

// CheckpointSigningBytes returns the message committee members sign for s:
// the intent, the canonical summary and the little-endian epoch.
func CheckpointSigningBytes(s *CheckpointSummary, epoch uint64) ([]byte, error) {
	bz, err := Encode(s)
	if err != nil {
		return nil, err
	}
	msg := make([]byte, 0, 3+len(bz)+8)
	msg = append(msg, CheckpointSummaryIntent.Scope, CheckpointSummaryIntent.Version, CheckpointSummaryIntent.AppID)
	msg = append(msg, bz...)
	var e [8]byte
	binary.LittleEndian.PutUint64(e[:], epoch)
	return append(msg, e[:]...), nil
}

// AuthorityQuorumSignInfo is an aggregated signature and the bitmap of the
// committee members that contributed to it.
type AuthorityQuorumSignInfo struct {
	_          struct{} `cbor:",toarray"`
	Epoch      uint64
	Signature  []byte
	SignersMap []byte
}

// NewSignersMap encodes committee member indices as a signer bitmap.
func NewSignersMap(indices ...int) []byte {
	b := bitset.New(0)
	for _, i := range indices {
		b.Set(uint(i))
	}
	bz, err := b.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return bz
}

// Signers decodes the signer bitmap of a committee of the given size. The
// bitmap's length header is checked against size before anything is
// allocated.
func (si *AuthorityQuorumSignInfo) Signers(size int) (*bitset.BitSet, error) {
	if len(si.SignersMap) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSignersMap, len(si.SignersMap))
	}
	if n := bitset.BinaryOrder().Uint64(si.SignersMap[:8]); n > uint64(size) {
		return nil, fmt.Errorf("%w: %d bits for committee of size %d", ErrInvalidSignersMap, n, size)
	}
	b := new(bitset.BitSet)
	if err := b.UnmarshalBinary(si.SignersMap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignersMap, err)
	}
	return b, nil
}

// CertifiedCheckpointSummary is a summary together with the certificate of
// the committee that signed it.
type CertifiedCheckpointSummary struct {
	_       struct{} `cbor:",toarray"`
	Summary CheckpointSummary
	AuthSig AuthorityQuorumSignInfo
}

func (c *CertifiedCheckpointSummary) SequenceNumber() uint64 {
	return c.Summary.SequenceNumber
}

func (c *CertifiedCheckpointSummary) Epoch() uint64 {
	return c.Summary.Epoch
}

// Bytes returns the canonical encoding of the certified summary.
func (c *CertifiedCheckpointSummary) Bytes() ([]byte, error) {
	return Encode(c)
}

// CertifiedCheckpointSummaryFromBytes decodes a canonically encoded
// certified summary.
func CertifiedCheckpointSummaryFromBytes(bz []byte) (*CertifiedCheckpointSummary, error) {
	var c CertifiedCheckpointSummary
	if err := Decode(bz, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// VerifyAuthoritySignatures checks that the certificate carries a valid
// quorum signature of committee.
func (c *CertifiedCheckpointSummary) VerifyAuthoritySignatures(committee *Committee) error {
	return committee.VerifyCertificate(&c.Summary, &c.AuthSig)
}

// VerifyWithContents additionally checks that contents hash to the content
// digest committed in the summary.
func (c *CertifiedCheckpointSummary) VerifyWithContents(committee *Committee, contents CheckpointContents) error {
	if err := c.VerifyAuthoritySignatures(committee); err != nil {
		return err
	}
	if d := contents.Digest(); d != c.Summary.ContentDigest {
		return ErrContentDigestMismatch{Expected: c.Summary.ContentDigest, Actual: d}
	}
	return nil
}

// ExecutionDigests pairs a transaction digest with its effects digest.
type ExecutionDigests struct {
	_           struct{} `cbor:",toarray"`
	Transaction Digest
	Effects     Digest
}

// CheckpointContents lists, in execution order, the transactions included in
// a checkpoint.
type CheckpointContents []ExecutionDigests

// Digest returns the content digest committed to by the summary.
func (cc CheckpointContents) Digest() Digest {
	d, err := DigestOf(cc)
	if err != nil {
		panic(err)
	}
	return d
}
