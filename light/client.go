package light

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/light/store"
	"github.com/lightrelay/lightrelay/types"
)

// Relayer forwards verified committee rotations to the target chain.
type Relayer interface {
	// HighestRegisteredEpoch returns the highest epoch the target chain has
	// registered, 0 if none.
	HighestRegisteredEpoch(ctx context.Context) (uint64, error)

	// Relay submits s unless the target chain already registered its epoch
	// and returns the new highest registered epoch.
	Relay(ctx context.Context, s *types.CertifiedCheckpointSummary, highest uint64) (uint64, error)
}

// Option sets a parameter for the light client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRelayer makes every sync run relay the committees it verifies.
func WithRelayer(r Relayer) Option {
	return func(c *Client) {
		c.relayer = r
	}
}

// WithTransactionLocator enables VerifyTransaction.
func WithTransactionLocator(l provider.TransactionLocator) Option {
	return func(c *Client) {
		c.locator = l
	}
}

// Client follows the source chain from the genesis committee through the
// end-of-epoch checkpoints listed in its store.
//
// Sync runs must not overlap, neither within one process nor across
// processes sharing the same store.
type Client struct {
	genesis *types.Committee
	trust   *TrustChain
	store   store.Store
	fetcher provider.CheckpointFetcher
	index   provider.EpochIndex
	locator provider.TransactionLocator
	relayer Relayer
	gapSync *GapSync

	logger  log.Logger
	metrics *Metrics
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	// Sequence numbers appended to the list by gap sync.
	Appended []uint64
	// Checkpoints that advanced the trust chain.
	Verified int
	// Committees submitted to the target chain.
	Relayed int
	// Committee trusted at the end of the run.
	Committee *types.Committee
}

// NewClient returns a light client trusting genesis.
func NewClient(
	genesis *types.Committee,
	st store.Store,
	fetcher provider.CheckpointFetcher,
	index provider.EpochIndex,
	options ...Option,
) (*Client, error) {
	c := &Client{
		genesis: genesis,
		trust:   NewTrustChain(),
		store:   st,
		fetcher: fetcher,
		index:   index,
		logger:  log.NewNopLogger(),
		metrics: NopMetrics(),
	}
	for _, o := range options {
		o(c)
	}

	if err := c.trust.Initialize(genesis); err != nil {
		return nil, err
	}
	c.gapSync = NewGapSync(st, fetcher, index, c.logger, c.metrics)
	c.metrics.TrustedEpoch.Set(float64(genesis.Epoch))
	return c, nil
}

// Committee returns the committee currently trusted.
func (c *Client) Committee() *types.Committee {
	return c.trust.Committee()
}

// Sync brings the checkpoint list up to the chain head, then verifies every
// listed checkpoint not verified yet, in order. Each verified checkpoint is
// relayed (if a relayer is set) and cached before moving on to the next.
//
// The first error stops the run; everything verified before it stays
// persisted.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	res := &SyncResult{}

	appended, err := c.gapSync.SyncToHead(ctx)
	res.Appended = appended
	if err != nil {
		return res, err
	}

	list, err := c.store.CheckpointList()
	if err != nil {
		return res, err
	}
	c.metrics.ListLength.Set(float64(len(list)))

	var highest uint64
	if c.relayer != nil {
		if highest, err = c.relayer.HighestRegisteredEpoch(ctx); err != nil {
			return res, fmt.Errorf("highest registered epoch: %w", err)
		}
		c.logger.Info("target chain state", "highest_registered_epoch", highest)
	}

	for _, seq := range list {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if last := c.trust.LastVerified(); last != nil && seq <= last.SequenceNumber() {
			continue
		}

		s, err := c.summary(ctx, seq)
		if err != nil {
			return res, err
		}

		committee, err := c.trust.VerifyAndAdvance(s)
		if err != nil {
			c.metrics.VerificationFailures.Add(1)
			return res, err
		}
		res.Verified++
		c.metrics.CheckpointsVerified.Add(1)
		c.metrics.TrustedEpoch.Set(float64(committee.Epoch))
		c.logger.Info("verified checkpoint", "seq", seq, "epoch", s.Epoch(), "next_epoch", committee.Epoch)

		if c.relayer != nil {
			next, err := c.relayer.Relay(ctx, s, highest)
			if err != nil {
				return res, fmt.Errorf("relay checkpoint #%d: %w", seq, err)
			}
			if next != highest {
				res.Relayed++
			}
			highest = next
		}

		if err := c.store.SaveCheckpoint(seq, s); err != nil {
			return res, err
		}
	}

	res.Committee = c.trust.Committee()
	return res, nil
}

// Restore replays the cached summaries of listed checkpoints through the
// trust chain, in order, up to the first one missing from the cache. It
// returns how many advanced the trust chain and makes no remote call.
func (c *Client) Restore() (int, error) {
	list, err := c.store.CheckpointList()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, seq := range list {
		if last := c.trust.LastVerified(); last != nil && seq <= last.SequenceNumber() {
			continue
		}
		s, err := c.store.Checkpoint(seq)
		if errors.Is(err, store.ErrCheckpointNotFound) {
			break
		}
		if err != nil {
			return n, err
		}
		committee, err := c.trust.VerifyAndAdvance(s)
		if err != nil {
			c.metrics.VerificationFailures.Add(1)
			return n, err
		}
		n++
		c.metrics.TrustedEpoch.Set(float64(committee.Epoch))
	}
	return n, nil
}

// summary returns the cached summary of seq, fetching it on a miss.
func (c *Client) summary(ctx context.Context, seq uint64) (*types.CertifiedCheckpointSummary, error) {
	s, err := c.store.Checkpoint(seq)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrCheckpointNotFound) {
		return nil, err
	}

	c.logger.Debug("fetching checkpoint", "seq", seq, "from", c.fetcher)
	return c.fetcher.Summary(ctx, seq)
}

// VerifyTransaction locates the checkpoint including tx, fetches it in full
// and returns the transaction's authenticated effects and events.
//
// The checkpoint is checked against the committee announced by the last
// verified end-of-epoch checkpoint before it (or genesis), so its epoch must
// have been reached by a previous sync.
func (c *Client) VerifyTransaction(
	ctx context.Context,
	tx types.Digest,
) (*types.TransactionEffects, *types.TransactionEvents, error) {
	if c.locator == nil {
		return nil, nil, errors.New("no transaction locator configured")
	}

	seq, err := c.locator.CheckpointOfTransaction(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	data, err := c.fetcher.FullCheckpoint(ctx, seq)
	if err != nil {
		return nil, nil, err
	}

	committee, err := c.committeeBefore(seq, data.Checkpoint.Epoch())
	if err != nil {
		return nil, nil, err
	}
	return ExtractEffectsAndEvents(data, committee, tx)
}

// committeeBefore returns the trusted committee of epoch, as announced by
// the cached end-of-epoch checkpoint preceding seq.
func (c *Client) committeeBefore(seq, epoch uint64) (*types.Committee, error) {
	prev, err := c.store.CheckpointBefore(seq)
	switch {
	case errors.Is(err, store.ErrCheckpointNotFound):
		if epoch == c.genesis.Epoch {
			return c.genesis, nil
		}
		return nil, ErrCommitteeUnknown{Epoch: epoch}
	case err != nil:
		return nil, err
	}

	if prev.Epoch()+1 != epoch {
		if epoch == c.genesis.Epoch {
			return c.genesis, nil
		}
		return nil, ErrCommitteeUnknown{Epoch: epoch}
	}
	return prev.Summary.NextCommittee()
}

// Close releases the store and, if it holds any, the relayer's resources.
func (c *Client) Close() error {
	err := c.store.Close()
	if closer, ok := c.relayer.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}
