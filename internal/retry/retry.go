// Package retry runs an operation under a bounded attempt policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	StrategyConstant    = "constant"
	StrategyExponential = "exponential"
)

// Policy bounds how often and how far apart an operation is retried.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Strategy    string
	// MaxDelay caps the exponential interval. Ignored for constant delays.
	MaxDelay time.Duration
}

// DefaultPolicy is three attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: time.Second, Strategy: StrategyConstant}
}

func (p Policy) backOff() backoff.BackOff {
	if p.Strategy == StrategyExponential {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.Delay
		b.RandomizationFactor = 0
		if p.MaxDelay > 0 {
			b.MaxInterval = p.MaxDelay
		}
		return b
	}
	return backoff.NewConstantBackOff(p.Delay)
}

// Notify is called after each failed attempt that will be retried.
type Notify func(attempt int, err error, next time.Duration)

// Do calls op until it succeeds, the attempts are exhausted or ctx is done.
// op receives the 1-based attempt number. The last attempt's error is
// returned unchanged. Errors marked with Stop end the loop immediately.
func Do(ctx context.Context, p Policy, op func(attempt int) error, notify Notify) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(attempt)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		var stop *stopError
		if errors.As(err, &stop) {
			return struct{}{}, backoff.Permanent(stop.err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			if notify != nil {
				notify(attempt, err, next)
			}
		}),
	)
	return err
}

type stopError struct{ err error }

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop marks err as not worth retrying.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}
