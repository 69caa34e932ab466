package light

import (
	"context"
	"errors"
	"fmt"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/light/store"
	"github.com/lightrelay/lightrelay/types"
)

// GapSync extends the checkpoint list with the end-of-epoch checkpoints of
// every epoch that ended since its last entry.
type GapSync struct {
	store   store.Store
	fetcher provider.CheckpointFetcher
	index   provider.EpochIndex
	logger  log.Logger
	metrics *Metrics
}

// NewGapSync returns a GapSync appending to st.
func NewGapSync(
	st store.Store,
	fetcher provider.CheckpointFetcher,
	index provider.EpochIndex,
	logger log.Logger,
	metrics *Metrics,
) *GapSync {
	return &GapSync{
		store:   st,
		fetcher: fetcher,
		index:   index,
		logger:  logger,
		metrics: metrics,
	}
}

// SyncToHead appends, one epoch at a time, the last checkpoint of every
// epoch after the one of the list's last entry, stopping before the epoch
// preceding the chain head's: that epoch's closing checkpoint may not exist
// yet. Each append is durable before the next epoch is queried, so an
// interrupted run resumes where it stopped.
//
// The newly appended sequence numbers are returned. Every failure is
// reported as ErrSync.
func (g *GapSync) SyncToHead(ctx context.Context) ([]uint64, error) {
	last, err := g.store.LastCheckpoint()
	if err != nil {
		return nil, ErrSync{Reason: err}
	}

	lastSummary, err := g.summary(ctx, last)
	if err != nil {
		return nil, ErrSync{Reason: fmt.Errorf("last listed checkpoint #%d: %w", last, err)}
	}

	headSeq, err := g.index.LatestCheckpoint(ctx)
	if err != nil {
		return nil, ErrSync{Reason: fmt.Errorf("chain head: %w", err)}
	}
	head, err := g.fetcher.Summary(ctx, headSeq)
	if err != nil {
		return nil, ErrSync{Reason: fmt.Errorf("chain head #%d: %w", headSeq, err)}
	}

	var (
		epoch    = lastSummary.Epoch()
		appended []uint64
	)
	g.logger.Debug("syncing checkpoint list", "last", last, "epoch", epoch,
		"head", headSeq, "head_epoch", head.Epoch())

	for epoch+1 < head.Epoch() {
		if err := ctx.Err(); err != nil {
			return appended, ErrSync{Reason: err}
		}

		target := epoch + 1
		seq, err := g.index.LastCheckpointOfEpoch(ctx, target)
		if err != nil {
			return appended, ErrSync{Reason: fmt.Errorf("end of epoch %d: %w", target, err)}
		}
		if err := g.store.AppendCheckpoint(seq); err != nil {
			return appended, ErrSync{Reason: err}
		}

		appended = append(appended, seq)
		g.metrics.CheckpointsAppended.Add(1)
		g.logger.Info("appended end of epoch checkpoint", "epoch", target, "seq", seq)
		epoch = target
	}
	return appended, nil
}

func (g *GapSync) summary(ctx context.Context, seq uint64) (*types.CertifiedCheckpointSummary, error) {
	s, err := g.store.Checkpoint(seq)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrCheckpointNotFound) {
		return nil, err
	}
	return g.fetcher.Summary(ctx, seq)
}
