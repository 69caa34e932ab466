package types

import (
	"github.com/lightrelay/lightrelay/crypto/bls12381"
)

// VerifyCertificate checks that sig is a quorum certificate of c over s:
//  1. the certificate was produced in c's epoch;
//  2. every signer is a member of c;
//  3. signers hold more than 2/3 of the total stake;
//  4. the aggregate signature verifies over the signing bytes of s.
func (c *Committee) VerifyCertificate(s *CheckpointSummary, sig *AuthorityQuorumSignInfo) error {
	if sig.Epoch != c.Epoch {
		return ErrEpochMismatch{Expected: c.Epoch, Actual: sig.Epoch}
	}

	signers, err := sig.Signers(len(c.Members))
	if err != nil {
		return err
	}

	var (
		tallied uint64
		pubKeys = make([]bls12381.PubKey, 0, signers.Count())
	)
	for i, ok := signers.NextSet(0); ok; i, ok = signers.NextSet(i + 1) {
		if i >= uint(len(c.Members)) {
			return ErrInvalidSigner{Index: i, Size: len(c.Members)}
		}
		m := c.Members[i]
		tallied += m.Stake
		pubKeys = append(pubKeys, m.Name.PubKey())
	}

	if needed := c.QuorumThreshold(); tallied < needed {
		return ErrNotEnoughStake{Got: tallied, Needed: needed}
	}

	msg, err := CheckpointSigningBytes(s, sig.Epoch)
	if err != nil {
		return err
	}
	if !bls12381.VerifyAggregate(pubKeys, msg, sig.Signature) {
		return ErrInvalidSignature
	}
	return nil
}
