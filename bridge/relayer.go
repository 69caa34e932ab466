package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/lightrelay/lightrelay/libs/log"
	"github.com/lightrelay/lightrelay/types"
)

// Submitter hands a submission over to whatever signs and sends the target
// chain transaction.
type Submitter interface {
	Submit(ctx context.Context, sub *Submission) error
}

// RelayerOption sets a parameter for the relayer.
type RelayerOption func(*Relayer)

// RelayerLogger sets the logger.
func RelayerLogger(l log.Logger) RelayerOption {
	return func(r *Relayer) {
		r.logger = l
	}
}

// RelayerMetrics sets the metrics.
func RelayerMetrics(m *Metrics) RelayerOption {
	return func(r *Relayer) {
		r.metrics = m
	}
}

// ConfirmPolicy sets how often the registry is polled after a submission and
// for how long.
func ConfirmPolicy(interval, timeout time.Duration) RelayerOption {
	return func(r *Relayer) {
		r.confirmInterval = interval
		r.confirmTimeout = timeout
	}
}

// WithoutConfirmation makes the relayer trust the submitter: a submission
// counts as registered as soon as Submit returns. Later checkpoints of the
// same run are not relayed since the committee they chain to is not
// registered yet.
func WithoutConfirmation() RelayerOption {
	return func(r *Relayer) {
		r.confirm = false
	}
}

// Relayer relays verified end-of-epoch checkpoints to the target chain
// registry. It implements light.Relayer.
type Relayer struct {
	registry  *Registry
	submitter Submitter

	confirm         bool
	confirmInterval time.Duration
	confirmTimeout  time.Duration

	// epoch submitted without confirmation, 0 if none
	pending uint64

	logger  log.Logger
	metrics *Metrics
}

// NewRelayer returns a relayer submitting through submitter. By default it
// waits up to 2 minutes for every submission to be registered, looking
// every 2 seconds.
func NewRelayer(registry *Registry, submitter Submitter, options ...RelayerOption) *Relayer {
	r := &Relayer{
		registry:        registry,
		submitter:       submitter,
		confirm:         true,
		confirmInterval: 2 * time.Second,
		confirmTimeout:  2 * time.Minute,
		logger:          log.NewNopLogger(),
		metrics:         NopMetrics(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// HighestRegisteredEpoch returns the highest registered epoch, 0 if the
// registry is empty.
func (r *Relayer) HighestRegisteredEpoch(ctx context.Context) (uint64, error) {
	highest, err := r.registry.HighestRegisteredEpoch(ctx)
	switch {
	case errors.Is(err, ErrNoRegisteredEpoch):
		highest = 0
	case err != nil:
		return 0, err
	}
	if highest >= r.pending {
		r.pending = 0
	}
	r.metrics.HighestRegisteredEpoch.Set(float64(highest))
	return highest, nil
}

// Relay submits s unless highest shows its epoch is registered already, and
// returns the highest registered epoch afterwards. A submission is made at
// most once; a submission that is not registered before the confirmation
// timeout fails with ErrRelayNotConfirmed.
func (r *Relayer) Relay(ctx context.Context, s *types.CertifiedCheckpointSummary, highest uint64) (uint64, error) {
	if Decide(s, highest) == Skip {
		return highest, nil
	}
	if r.pending != 0 {
		r.logger.Info("previous committee not registered yet, not relaying",
			"epoch", s.Epoch(), "pending", r.pending)
		return highest, nil
	}

	epoch := s.Epoch()
	prev, err := r.registry.CommitteeObject(ctx, epoch-1)
	if err != nil {
		return highest, fmt.Errorf("committee object of epoch %d: %w", epoch-1, err)
	}
	sub, err := NewSubmission(r.registry.ID(), prev, s)
	if err != nil {
		return highest, err
	}

	if err := r.submitter.Submit(ctx, sub); err != nil {
		return highest, fmt.Errorf("submit epoch %d: %w", epoch, err)
	}
	r.metrics.RelaysSubmitted.Add(1)
	r.logger.Info("submitted committee", "epoch", epoch, "seq", s.SequenceNumber(), "previous", prev)

	if !r.confirm {
		r.pending = epoch
		return epoch, nil
	}

	start := time.Now()
	registered, err := r.waitFor(ctx, epoch)
	if err != nil {
		r.metrics.RelaysUnconfirmed.Add(1)
		return highest, err
	}
	r.metrics.RelaysConfirmed.Add(1)
	r.metrics.ConfirmSeconds.Observe(time.Since(start).Seconds())
	r.logger.Info("committee registered", "epoch", epoch, "highest", registered)
	return registered, nil
}

var errNotRegistered = errors.New("not registered yet")

// waitFor polls the registry until it reports epoch or later.
func (r *Relayer) waitFor(ctx context.Context, epoch uint64) (uint64, error) {
	if r.confirmInterval <= 0 {
		return 0, fmt.Errorf("confirm interval must be positive, got %v", r.confirmInterval)
	}
	b := retry.WithMaxDuration(r.confirmTimeout, retry.NewConstant(r.confirmInterval))

	var (
		registered uint64
		lastErr    error
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		h, err := r.HighestRegisteredEpoch(ctx)
		if err != nil {
			lastErr = err
			return retry.RetryableError(err)
		}
		if h < epoch {
			lastErr = errNotRegistered
			return retry.RetryableError(errNotRegistered)
		}
		registered = h
		return nil
	})
	if err == nil {
		return registered, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	return 0, fmt.Errorf("%w: epoch %d after %v: %v", ErrRelayNotConfirmed, epoch, r.confirmTimeout, lastErr)
}
