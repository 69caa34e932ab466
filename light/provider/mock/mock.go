package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/lightrelay/lightrelay/crypto/bls12381"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/types"
)

// Chain is an in-memory source chain. It serves as CheckpointFetcher,
// EpochIndex and TransactionLocator at once.
type Chain struct {
	mtx         sync.Mutex
	checkpoints map[uint64]*types.CheckpointData
	epochEnds   map[uint64]uint64
	txIndex     map[types.Digest]uint64
	head        uint64
	err         error
	fetches     map[uint64]int
}

var (
	_ provider.CheckpointFetcher  = (*Chain)(nil)
	_ provider.EpochIndex         = (*Chain)(nil)
	_ provider.TransactionLocator = (*Chain)(nil)
)

// New returns an empty chain.
func New() *Chain {
	return &Chain{
		checkpoints: make(map[uint64]*types.CheckpointData),
		epochEnds:   make(map[uint64]uint64),
		txIndex:     make(map[types.Digest]uint64),
		fetches:     make(map[uint64]int),
	}
}

// Add publishes a checkpoint. End-of-epoch checkpoints are indexed by epoch
// and the newest checkpoint becomes the head.
func (c *Chain) Add(data *types.CheckpointData) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	seq := data.Checkpoint.SequenceNumber()
	c.checkpoints[seq] = data
	if data.Checkpoint.Summary.IsEndOfEpoch() {
		c.epochEnds[data.Checkpoint.Epoch()] = seq
	}
	for _, d := range data.Contents {
		c.txIndex[d.Transaction] = seq
	}
	if seq > c.head {
		c.head = seq
	}
}

// SetError makes every subsequent call fail with err. nil restores normal
// operation.
func (c *Chain) SetError(err error) {
	c.mtx.Lock()
	c.err = err
	c.mtx.Unlock()
}

// Fetches returns how many times checkpoint seq was fetched.
func (c *Chain) Fetches(seq uint64) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.fetches[seq]
}

func (c *Chain) FullCheckpoint(_ context.Context, seq uint64) (*types.CheckpointData, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	c.fetches[seq]++
	data, ok := c.checkpoints[seq]
	if !ok {
		return nil, provider.ErrCheckpointNotFound
	}
	return data, nil
}

func (c *Chain) Summary(ctx context.Context, seq uint64) (*types.CertifiedCheckpointSummary, error) {
	data, err := c.FullCheckpoint(ctx, seq)
	if err != nil {
		return nil, err
	}
	return &data.Checkpoint, nil
}

func (c *Chain) LatestCheckpoint(context.Context) (uint64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.err != nil {
		return 0, c.err
	}
	if len(c.checkpoints) == 0 {
		return 0, provider.ErrCheckpointNotFound
	}
	return c.head, nil
}

func (c *Chain) LastCheckpointOfEpoch(_ context.Context, epoch uint64) (uint64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.err != nil {
		return 0, c.err
	}
	seq, ok := c.epochEnds[epoch]
	if !ok {
		return 0, provider.ErrCheckpointNotFound
	}
	return seq, nil
}

func (c *Chain) CheckpointOfTransaction(_ context.Context, tx types.Digest) (uint64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.err != nil {
		return 0, c.err
	}
	seq, ok := c.txIndex[tx]
	if !ok {
		return 0, provider.ErrTransactionNotFound
	}
	return seq, nil
}

func (c *Chain) String() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return fmt.Sprintf("Mock{checkpoints: %d, head: %d}", len(c.checkpoints), c.head)
}

// Generated describes a chain built by Generate.
type Generated struct {
	Chain *Chain
	// Committees[i] signs epoch i+1.
	Committees []*types.Committee
	Keys       [][]bls12381.PrivKey
	// EpochEnds[i] is the end-of-epoch checkpoint of epoch i+1.
	EpochEnds []uint64
}

// Generate builds a chain starting at epoch 1 with the given genesis
// committee. Every epoch has perEpoch checkpoints carrying txs transactions
// each, the last one closing the epoch with a fresh committee of four. The
// final epoch is left open: its checkpoints are published but none closes
// it.
func Generate(
	genesis *types.Committee,
	genesisKeys []bls12381.PrivKey,
	epochs, perEpoch, txs int,
) (*Generated, error) {
	g := &Generated{
		Chain:      New(),
		Committees: []*types.Committee{genesis},
		Keys:       [][]bls12381.PrivKey{genesisKeys},
	}
	seq := uint64(0)
	for e := 1; e <= epochs; e++ {
		epoch := uint64(e)
		committee, keys := g.Committees[e-1], g.Keys[e-1]

		var next *types.Committee
		var nextKeys []bls12381.PrivKey
		if e < epochs {
			next, nextKeys = types.RandCommittee(epoch+1, 4, 100)
		}
		for i := 1; i <= perEpoch; i++ {
			seq++
			var closing *types.Committee
			if i == perEpoch {
				closing = next
			}
			data, err := types.MakeCheckpointData(epoch, seq, txs, closing, committee, keys)
			if err != nil {
				return nil, err
			}
			g.Chain.Add(data)
			if closing != nil {
				g.EpochEnds = append(g.EpochEnds, seq)
			}
		}
		if next != nil {
			g.Committees = append(g.Committees, next)
			g.Keys = append(g.Keys, nextKeys)
		}
	}
	return g, nil
}
