package provider

import (
	"context"

	"github.com/lightrelay/lightrelay/types"
)

// CheckpointFetcher reads checkpoints published by the source chain
// (verification happens in the client).
type CheckpointFetcher interface {
	// Summary returns the certified summary of checkpoint seq.
	//
	// If the checkpoint does not exist, ErrCheckpointNotFound is returned.
	// If it cannot be read before the retry budget runs out, ErrFetchTimeout
	// is returned.
	Summary(ctx context.Context, seq uint64) (*types.CertifiedCheckpointSummary, error)

	// FullCheckpoint returns checkpoint seq with its contents and every
	// transaction's effects and events.
	FullCheckpoint(ctx context.Context, seq uint64) (*types.CheckpointData, error)

	String() string
}

// EpochIndex answers which checkpoints exist and where epochs end.
type EpochIndex interface {
	// LatestCheckpoint returns the sequence number of the newest checkpoint.
	LatestCheckpoint(ctx context.Context) (uint64, error)

	// LastCheckpointOfEpoch returns the sequence number of the checkpoint
	// closing epoch.
	//
	// If the epoch has not ended yet, ErrCheckpointNotFound is returned.
	LastCheckpointOfEpoch(ctx context.Context, epoch uint64) (uint64, error)
}

// TransactionLocator finds the checkpoint that includes a transaction.
type TransactionLocator interface {
	// CheckpointOfTransaction returns the sequence number of the checkpoint
	// including tx.
	//
	// If tx is unknown, ErrTransactionNotFound is returned.
	CheckpointOfTransaction(ctx context.Context, tx types.Digest) (uint64, error)
}
