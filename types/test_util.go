package types

import (
	"fmt"

	"github.com/lightrelay/lightrelay/crypto/bls12381"
)

// RandCommittee returns a committee of n members of equal stake and the
// members' private keys, in member order.
func RandCommittee(epoch uint64, n int, stake uint64) (*Committee, []bls12381.PrivKey) {
	stakes := make([]uint64, n)
	for i := range stakes {
		stakes[i] = stake
	}
	return RandCommitteeWithStakes(epoch, stakes...)
}

// RandCommitteeWithStakes is like RandCommittee with one stake per member.
// The returned keys follow committee order, which is not input order.
func RandCommitteeWithStakes(epoch uint64, stakes ...uint64) (*Committee, []bls12381.PrivKey) {
	var (
		members = make([]Authority, len(stakes))
		byName  = make(map[AuthorityName]bls12381.PrivKey, len(stakes))
	)
	for i, stake := range stakes {
		priv := bls12381.GenPrivKey()
		var name AuthorityName
		copy(name[:], priv.PubKey().Bytes())
		members[i] = Authority{Name: name, Stake: stake}
		byName[name] = priv
	}

	c, err := NewCommittee(epoch, members)
	if err != nil {
		panic(err)
	}
	privKeys := make([]bls12381.PrivKey, len(c.Members))
	for i, m := range c.Members {
		privKeys[i] = byName[m.Name]
	}
	return c, privKeys
}

// SignCheckpointSummary certifies s on behalf of the committee members at
// the given indices. With no indices every member signs.
func SignCheckpointSummary(
	s CheckpointSummary,
	c *Committee,
	privKeys []bls12381.PrivKey,
	signers ...int,
) (*CertifiedCheckpointSummary, error) {
	if len(signers) == 0 {
		signers = make([]int, len(privKeys))
		for i := range signers {
			signers[i] = i
		}
	}

	msg, err := CheckpointSigningBytes(&s, c.Epoch)
	if err != nil {
		return nil, err
	}
	sigs := make([][]byte, 0, len(signers))
	for _, i := range signers {
		if i < 0 || i >= len(privKeys) {
			return nil, fmt.Errorf("no private key for signer %d", i)
		}
		sig, err := privKeys[i].Sign(msg)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	agg, err := bls12381.AggregateSignatures(sigs)
	if err != nil {
		return nil, err
	}

	return &CertifiedCheckpointSummary{
		Summary: s,
		AuthSig: AuthorityQuorumSignInfo{
			Epoch:      c.Epoch,
			Signature:  agg,
			SignersMap: NewSignersMap(signers...),
		},
	}, nil
}

// MakeCheckpointSummary returns an unsigned summary of epoch. When next is
// non-nil the summary closes the epoch and announces next.
func MakeCheckpointSummary(epoch, seq uint64, next *Committee) CheckpointSummary {
	prev := Digest{byte(seq), byte(seq >> 8), byte(epoch)}
	s := CheckpointSummary{
		Epoch:                    epoch,
		SequenceNumber:           seq,
		NetworkTotalTransactions: seq * 10,
		PreviousDigest:           &prev,
		TimestampMs:              1_700_000_000_000 + seq,
	}
	if next != nil {
		s.EndOfEpochData = &EndOfEpochData{
			NextEpochCommittee:       next.Members,
			NextEpochProtocolVersion: 1,
		}
	}
	return s
}

// MakeCheckpointData builds a full checkpoint with txCount transactions,
// each emitting one event, certified by every member of c.
func MakeCheckpointData(
	epoch, seq uint64,
	txCount int,
	next *Committee,
	c *Committee,
	privKeys []bls12381.PrivKey,
) (*CheckpointData, error) {
	var (
		contents = make(CheckpointContents, 0, txCount)
		txs      = make([]CheckpointTransaction, 0, txCount)
	)
	for i := 0; i < txCount; i++ {
		tx := Transaction{Data: TransactionData{
			Sender:    Address{byte(i + 1)},
			GasBudget: 1000,
			GasPrice:  1,
			Kind:      "ProgrammableTransaction",
			Payload:   []byte(fmt.Sprintf("tx-%d-%d", seq, i)),
		}}
		events := &TransactionEvents{Data: []Event{{
			PackageID:         Address{0x2},
			TransactionModule: "coin",
			Sender:            tx.Data.Sender,
			Type:              "0x2::coin::Transfer",
			Contents:          []byte(fmt.Sprintf("event-%d", i)),
		}}}
		ed := events.Digest()
		effects := TransactionEffects{
			Status:            ExecutionSuccess,
			ExecutedEpoch:     epoch,
			TransactionDigest: tx.Digest(),
			EventsDigest:      &ed,
		}
		contents = append(contents, ExecutionDigests{Transaction: tx.Digest(), Effects: effects.Digest()})
		txs = append(txs, CheckpointTransaction{Transaction: tx, Effects: effects, Events: events})
	}

	s := MakeCheckpointSummary(epoch, seq, next)
	s.ContentDigest = contents.Digest()
	cert, err := SignCheckpointSummary(s, c, privKeys)
	if err != nil {
		return nil, err
	}
	return &CheckpointData{Checkpoint: *cert, Contents: contents, Transactions: txs}, nil
}
