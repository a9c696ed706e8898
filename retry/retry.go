/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package retry provides backoff policies and a helper for retrying operations.
package retry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// IsRetryable defines which errors lead to retry attempt (can be nil for any error).
// Notify receives every error that is going to be retried together with the backoff delay (can be nil).
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	return DoWithBackOff(ctx, p.NewBackOff(), isRetryable, notify, fn)
}

// DoWithBackOff is like DoWithRetry but uses the already created backoff.
// It is useful when the caller needs to influence delays during retrying (see OverridableBackOff).
func DoWithBackOff(
	ctx context.Context, b backoff.BackOff, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc,
) error {
	bctx := backoff.WithContext(b, ctx)
	var op backoff.Operation = func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, notify)
}

// Policy kinds.
const (
	PolicyExponential = "exponential"
	PolicyConstant    = "constant"
)

// ExponentialBackoffPolicy means repeat up to MaxAttempts times with exponentially growing delays.
type ExponentialBackoffPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval and max retry attempt count.
// The default multiplier (1.5) is used.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{InitialInterval: initialInterval, MaxAttempts: maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.Multiplier > 0 {
		eb.Multiplier = p.Multiplier
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	return withMaxAttempts(eb, p.MaxAttempts)
}

// ConstantBackoffPolicy means repeat up to MaxAttempts times with constant interval delays.
type ConstantBackoffPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval and max retry attempt count.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{Interval: interval, MaxAttempts: maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxAttempts(backoff.NewConstantBackOff(p.Interval), p.MaxAttempts)
}

func withMaxAttempts(b backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts))
	}
	b.Reset()
	return b
}

// NewPolicy creates a policy by its kind (PolicyExponential or PolicyConstant).
// The interval is the initial one for the exponential policy.
func NewPolicy(kind string, interval time.Duration, maxAttempts int) (Policy, error) {
	switch strings.ToLower(kind) {
	case PolicyExponential:
		return NewExponentialBackoffPolicy(interval, maxAttempts), nil
	case PolicyConstant:
		return NewConstantBackoffPolicy(interval, maxAttempts), nil
	default:
		return nil, fmt.Errorf("unknown retry policy %q", kind)
	}
}

// OverridableBackOff wraps a backoff and allows replacing its next delay once,
// e.g. with the value of the Retry-After HTTP header.
// The wrapped backoff is still consulted on every step, so its stop condition (like max attempts) is respected.
type OverridableBackOff struct {
	delegate    backoff.BackOff
	next        time.Duration
	hasOverride bool
}

// NewOverridableBackOff creates a new OverridableBackOff.
func NewOverridableBackOff(delegate backoff.BackOff) *OverridableBackOff {
	return &OverridableBackOff{delegate: delegate}
}

// OverrideNext makes the next NextBackOff call return d (unless the delegate stops).
func (b *OverridableBackOff) OverrideNext(d time.Duration) {
	b.next, b.hasOverride = d, true
}

// NextBackOff implements backoff.BackOff.
func (b *OverridableBackOff) NextBackOff() time.Duration {
	next := b.delegate.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if b.hasOverride {
		next, b.hasOverride = b.next, false
	}
	return next
}

// Reset implements backoff.BackOff.
func (b *OverridableBackOff) Reset() {
	b.hasOverride = false
	b.delegate.Reset()
}
