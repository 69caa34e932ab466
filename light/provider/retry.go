package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/lightrelay/lightrelay/config"
)

// RetryPolicy drives retries of remote reads. A Multiplier of 1 keeps the
// delay between attempts constant; anything above grows it geometrically up
// to MaxInterval.
type RetryPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration

	// OnRetry, if set, is called before every retry with the error that
	// caused it.
	OnRetry func(attempt int, err error)
}

// NewRetryPolicy returns the policy described by cfg.
func NewRetryPolicy(cfg *config.FetchConfig) RetryPolicy {
	return RetryPolicy{
		InitialInterval: cfg.InitialInterval,
		Multiplier:      cfg.Multiplier,
		MaxInterval:     cfg.MaxInterval,
		MaxElapsedTime:  cfg.MaxElapsedTime,
	}
}

// DefaultRetryPolicy retries every 100ms for up to a minute.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(config.DefaultFetchConfig())
}

func (p RetryPolicy) backoff() (retry.Backoff, error) {
	if p.InitialInterval <= 0 {
		return nil, errors.New("initial interval must be positive")
	}
	var b retry.Backoff
	if p.Multiplier <= 1 {
		b = retry.NewConstant(p.InitialInterval)
	} else {
		next := float64(p.InitialInterval)
		b = retry.BackoffFunc(func() (time.Duration, bool) {
			cur := next
			next = math.Min(next*p.Multiplier, float64(math.MaxInt64))
			return time.Duration(cur), false
		})
	}
	if p.MaxInterval > 0 {
		b = retry.WithCappedDuration(p.MaxInterval, b)
	}
	if p.MaxElapsedTime > 0 {
		b = retry.WithMaxDuration(p.MaxElapsedTime, b)
	}
	return b, nil
}

// Do calls fn until it succeeds, returns a permanent error (see IsPermanent)
// or the policy runs out of time, in which case the last error is returned
// wrapped in ErrFetchTimeout. If ctx itself is done, ctx.Err() is returned
// as is.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b, err := p.backoff()
	if err != nil {
		return err
	}

	parent := ctx
	if p.MaxElapsedTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.MaxElapsedTime)
		defer cancel()
	}

	var (
		attempt int
		lastErr error
	)
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if attempt > 0 && p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}
		attempt++

		err := fn(ctx)
		if err == nil || IsPermanent(err) {
			return err
		}
		lastErr = err
		return retry.RetryableError(err)
	})
	if err == nil || IsPermanent(err) {
		return err
	}
	if ctxErr := parent.Err(); ctxErr != nil {
		return ctxErr
	}
	if lastErr == nil {
		lastErr = err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrFetchTimeout, attempt, lastErr)
}
