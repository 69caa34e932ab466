package light

import (
	"fmt"

	"github.com/lightrelay/lightrelay/types"
)

// ExtractEffectsAndEvents authenticates the effects and events of
// transaction tx inside a full checkpoint.
//
// The checkpoint must carry a quorum certificate of committee over contents
// that hash to the certified content digest. The matching entry must agree
// with the certified contents on both the transaction digest and the effects
// digest, and its events must hash to the digest recorded in the effects.
// Events are nil when the transaction emitted none.
func ExtractEffectsAndEvents(
	data *types.CheckpointData,
	committee *types.Committee,
	tx types.Digest,
) (*types.TransactionEffects, *types.TransactionEvents, error) {
	seq := data.Checkpoint.SequenceNumber()

	if err := data.Checkpoint.VerifyWithContents(committee, data.Contents); err != nil {
		return nil, nil, ErrVerification{Seq: seq, Reason: err}
	}
	if len(data.Contents) != len(data.Transactions) {
		return nil, nil, ErrVerification{
			Seq: seq,
			Reason: fmt.Errorf("%d transactions for %d certified entries",
				len(data.Transactions), len(data.Contents)),
		}
	}

	for i := range data.Transactions {
		var (
			entry     = data.Contents[i]
			candidate = &data.Transactions[i]
		)
		if entry.Transaction != tx || candidate.Effects.TransactionDigest != tx {
			continue
		}
		if candidate.Effects.Digest() != entry.Effects {
			continue
		}

		if err := checkEvents(&candidate.Effects, candidate.Events); err != nil {
			return nil, nil, fmt.Errorf("transaction %v in checkpoint #%d: %w", tx, seq, err)
		}
		return &candidate.Effects, candidate.Events, nil
	}

	return nil, nil, fmt.Errorf("%w: %v in checkpoint #%d", ErrTransactionNotFound, tx, seq)
}

func checkEvents(effects *types.TransactionEffects, events *types.TransactionEvents) error {
	switch {
	case events == nil && effects.EventsDigest == nil:
		return nil
	case events == nil:
		return fmt.Errorf("%w: effects commit to %v but no events were given",
			ErrEventsDigestMismatch, *effects.EventsDigest)
	case effects.EventsDigest == nil:
		return fmt.Errorf("%w: effects commit to no events", ErrEventsDigestMismatch)
	}

	if d := events.Digest(); d != *effects.EventsDigest {
		return fmt.Errorf("%w: got %v, want %v", ErrEventsDigestMismatch, d, *effects.EventsDigest)
	}
	return nil
}
