// Package objstore fetches full checkpoints from the object store the source
// chain publishes them to. Each checkpoint lives under "<seq>.chk" as a
// version byte followed by its canonical encoding.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/light/provider"
	"github.com/lightrelay/lightrelay/types"
)

// Fetcher implements provider.CheckpointFetcher on top of a Bucket.
type Fetcher struct {
	bucket  Bucket
	policy  provider.RetryPolicy
	logger  log.Logger
	metrics *Metrics
}

var _ provider.CheckpointFetcher = (*Fetcher)(nil)

// Option sets a parameter for the fetcher.
type Option func(*Fetcher)

// Logger option can be used to set a logger for the fetcher.
func Logger(l log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// RetryPolicy option overrides the default retry policy.
func RetryPolicy(p provider.RetryPolicy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithMetrics sets the metrics.
func WithMetrics(m *Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New returns a fetcher reading from bucket.
func New(bucket Bucket, options ...Option) *Fetcher {
	f := &Fetcher{
		bucket:  bucket,
		policy:  provider.DefaultRetryPolicy(),
		logger:  log.NewNopLogger(),
		metrics: NopMetrics(),
	}
	for _, o := range options {
		o(f)
	}
	return f
}

// FullCheckpoint downloads and decodes checkpoint seq, retrying transient
// failures. Missing objects and malformed blobs fail immediately.
func (f *Fetcher) FullCheckpoint(ctx context.Context, seq uint64) (*types.CheckpointData, error) {
	var (
		key    = ObjectKey(seq)
		data   *types.CheckpointData
		start  = time.Now()
		policy = f.policy
	)
	policy.OnRetry = func(attempt int, err error) {
		f.metrics.Retries.Add(1)
		f.logger.Debug("retrying checkpoint fetch", "seq", seq, "attempt", attempt, "err", err)
	}

	err := policy.Do(ctx, func(ctx context.Context) error {
		blob, err := f.bucket.Object(ctx, key)
		if errors.Is(err, ErrObjectNotFound) {
			return provider.ErrCheckpointNotFound
		}
		if err != nil {
			return err
		}

		d, err := DecodeBlob(blob)
		if err != nil {
			return err
		}
		if got := d.Checkpoint.SequenceNumber(); got != seq {
			return provider.ErrDecode{Reason: fmt.Errorf("object %s holds checkpoint #%d", key, got)}
		}
		data = d
		return nil
	})
	f.metrics.FetchSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.Failures.With("reason", failureReason(err)).Add(1)
		return nil, fmt.Errorf("fetch checkpoint #%d from %s: %w", seq, f.bucket, err)
	}

	f.metrics.Fetched.Add(1)
	return data, nil
}

// Summary returns the certified summary of checkpoint seq.
func (f *Fetcher) Summary(ctx context.Context, seq uint64) (*types.CertifiedCheckpointSummary, error) {
	data, err := f.FullCheckpoint(ctx, seq)
	if err != nil {
		return nil, err
	}
	return &data.Checkpoint, nil
}

func (f *Fetcher) String() string {
	return fmt.Sprintf("objstore{%s}", f.bucket)
}

func failureReason(err error) string {
	var decErr provider.ErrDecode
	switch {
	case errors.Is(err, provider.ErrCheckpointNotFound):
		return "not_found"
	case errors.As(err, &decErr):
		return "decode"
	case errors.Is(err, provider.ErrFetchTimeout):
		return "timeout"
	default:
		return "other"
	}
}
