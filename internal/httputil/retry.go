// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry loop shared by outbound provider calls.
package httputil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryBaseDelay and RetryMaxDelay are the defaults for DefaultPolicy.
// Tests override them to avoid real sleeps.
var (
	RetryBaseDelay = 500 * time.Millisecond
	RetryMaxDelay  = 4 * time.Second
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 2

// Policy controls how many times an attempt is repeated and how long to wait
// in between. Delays start at BaseDelay and double up to MaxDelay.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy returns 2 retries with 500 ms, 1 s backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  RetryBaseDelay,
		MaxDelay:   RetryMaxDelay,
	}
}

// Delays returns the backoff waited before each retry, in order.
func (p Policy) Delays() []time.Duration {
	delays := make([]time.Duration, 0, max(p.MaxRetries, 0))
	d := p.BaseDelay
	for i := 0; i < p.MaxRetries; i++ {
		delays = append(delays, min(d, p.MaxDelay))
		d *= 2
	}
	return delays
}

// WorstCase returns the longest a call can take when every attempt runs into
// attemptTimeout: attemptTimeout*(MaxRetries+1) plus all backoff delays.
func (p Policy) WorstCase(attemptTimeout time.Duration) time.Duration {
	total := attemptTimeout * time.Duration(p.MaxRetries+1)
	for _, d := range p.Delays() {
		total += d
	}
	return total
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient so DoWithRetry makes another attempt.
// Errors not marked this way stop the loop immediately.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// Attempt performs one try. attempt is 1-based.
type Attempt func(ctx context.Context, attempt int) error

// DoWithRetry runs fn until it succeeds, returns an error not marked
// Retryable, or p.MaxRetries retries have been spent. It returns the number
// of attempts made and the last error with the Retryable marker removed.
//
// If ctx is cancelled during a backoff wait the function returns ctx.Err()
// without starting another attempt.
func DoWithRetry(ctx context.Context, p Policy, fn Attempt) (int, error) {
	attempts := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		err := fn(ctx, attempts)
		if err == nil {
			return nil
		}
		var r *retryableError
		if errors.As(err, &r) {
			return r.err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, p.backOff(ctx))
	return attempts, err
}
