/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		var calls int
		var notified []time.Duration
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5), nil,
			func(err error, d time.Duration) { notified = append(notified, d) },
			func(ctx context.Context) error {
				calls++
				if calls < 3 {
					return errTemporary
				}
				return nil
			})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
		require.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, notified)
	})

	t.Run("max attempts exceeded", func(t *testing.T) {
		var calls int
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 2), nil, nil,
			func(ctx context.Context) error {
				calls++
				return errTemporary
			})
		require.ErrorIs(t, err, errTemporary)
		require.Equal(t, 3, calls)
	})

	t.Run("non-retryable error", func(t *testing.T) {
		errFatal := errors.New("fatal")
		var calls int
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5),
			func(err error) bool { return errors.Is(err, errTemporary) }, nil,
			func(ctx context.Context) error {
				calls++
				return errFatal
			})
		require.ErrorIs(t, err, errFatal)
		require.Equal(t, 1, calls)
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := DoWithRetry(ctx, NewConstantBackoffPolicy(time.Hour, 5), nil, nil,
			func(ctx context.Context) error { return errTemporary })
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestExponentialBackoffPolicy(t *testing.T) {
	b := ExponentialBackoffPolicy{InitialInterval: 100 * time.Millisecond, Multiplier: 2, MaxAttempts: 3}.NewBackOff()
	for i := 0; i < 3; i++ {
		next := b.NextBackOff()
		require.NotEqual(t, backoff.Stop, next)
		require.Greater(t, next, time.Duration(0))
	}
	require.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy("Exponential", time.Second, 3)
	require.NoError(t, err)
	require.Equal(t, NewExponentialBackoffPolicy(time.Second, 3), p)

	p, err = NewPolicy(PolicyConstant, time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, NewConstantBackoffPolicy(time.Second, 0), p)

	_, err = NewPolicy("fibonacci", time.Second, 0)
	require.EqualError(t, err, `unknown retry policy "fibonacci"`)
}

func TestOverridableBackOff(t *testing.T) {
	b := NewOverridableBackOff(NewConstantBackoffPolicy(time.Second, 2).NewBackOff())

	b.OverrideNext(5 * time.Second)
	require.Equal(t, 5*time.Second, b.NextBackOff())
	require.Equal(t, time.Second, b.NextBackOff())

	b.OverrideNext(5 * time.Second)
	require.Equal(t, backoff.Stop, b.NextBackOff(), "delegate stop condition wins")

	b.Reset()
	require.Equal(t, time.Second, b.NextBackOff())
}
