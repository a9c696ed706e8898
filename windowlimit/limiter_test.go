/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type countingMetrics struct {
	admitted    atomic.Int32
	interrupted atomic.Int32
	resets      atomic.Int32
	dropped     atomic.Int32
	maxWaiting  atomic.Int32
	waits       atomic.Int32
}

func (m *countingMetrics) IncAdmitted()    { m.admitted.Inc() }
func (m *countingMetrics) IncInterrupted() { m.interrupted.Inc() }
func (m *countingMetrics) IncResets(dropped int) {
	m.resets.Inc()
	m.dropped.Add(int32(dropped))
}
func (m *countingMetrics) SetWaiting(n int) {
	for {
		cur := m.maxWaiting.Load()
		if int32(n) <= cur || m.maxWaiting.CompareAndSwap(cur, int32(n)) {
			return
		}
	}
}
func (m *countingMetrics) ObserveWaitDuration(time.Duration) { m.waits.Inc() }

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "zero limit", cfg: Config{Window: time.Second, Limit: 0}, wantErr: "Request limit must be a positive number."},
		{name: "negative limit", cfg: Config{Window: time.Second, Limit: -1}, wantErr: "Request limit must be a positive number."},
		{name: "zero window", cfg: Config{Window: 0, Limit: 1}, wantErr: "Window duration must be a positive duration."},
		{name: "negative window", cfg: Config{Window: -time.Second, Limit: 1}, wantErr: "Window duration must be a positive duration."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &countingMetrics{}
			limiter, err := New(tt.cfg, WithMetricsCollector(metrics))
			require.Nil(t, limiter)
			require.EqualError(t, err, tt.wantErr)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)

			time.Sleep(10 * time.Millisecond)
			require.Zero(t, metrics.resets.Load(), "no window must be started")
		})
	}
}

func TestLimiter_AcquireWithinLimitDoesNotBlock(t *testing.T) {
	const limit = 5
	limiter, err := New(Config{Window: time.Hour, Limit: limit})
	require.NoError(t, err)
	defer limiter.Shutdown()

	startTime := time.Now()
	for i := 0; i < limit; i++ {
		limiter.Acquire()
	}
	require.Less(t, time.Since(startTime), 50*time.Millisecond)
	require.Equal(t, 0, limiter.Available())
	require.False(t, limiter.TryAcquire())
}

func TestLimiter_ExtraCallWaitsForNextWindow(t *testing.T) {
	// limit=3, window=1s: three calls pass at once, the 4th one waits for the next window.
	const window = time.Second
	limiter, err := New(Config{Window: window, Limit: 3})
	require.NoError(t, err)
	defer limiter.Shutdown()

	windowStart := limiter.WindowStart()
	startTime := time.Now()
	for i := 0; i < 3; i++ {
		limiter.Acquire()
	}
	require.Less(t, time.Since(startTime), 50*time.Millisecond)

	limiter.Acquire()
	elapsed := time.Since(windowStart)
	require.GreaterOrEqual(t, elapsed, window)
	require.Less(t, elapsed, window+200*time.Millisecond)
	require.True(t, limiter.WindowStart().After(windowStart))
}

func TestLimiter_SinglePermitWindow(t *testing.T) {
	// limit=1, window=1s.
	const window = time.Second
	limiter, err := New(Config{Window: window, Limit: 1})
	require.NoError(t, err)
	defer limiter.Shutdown()

	limiter.Acquire()

	secondDone := make(chan struct{})
	go func() {
		limiter.Acquire()
		close(secondDone)
	}()

	select {
	case <-secondDone:
		t.Fatal("second call must block until the next window")
	case <-time.After(100 * time.Millisecond):
	}

	time.Sleep(window)
	select {
	case <-secondDone:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("second call must be admitted in the next window")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = limiter.AcquireContext(ctx)
	var waitErr *InterruptedWaitError
	require.ErrorAs(t, err, &waitErr, "third call must block again")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_ResetAdmitsExactlyLimitWaiters(t *testing.T) {
	const limit = 3
	const waitersNum = 5
	const window = 500 * time.Millisecond

	limiter, err := New(Config{Window: window, Limit: limit})
	require.NoError(t, err)
	defer limiter.Shutdown()

	for i := 0; i < limit; i++ {
		require.True(t, limiter.TryAcquire())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < waitersNum; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.AcquireContext(ctx) == nil {
				admitted.Inc()
			}
		}()
	}

	require.Eventually(t, func() bool { return limiter.Snapshot().Waiting == waitersNum }, window/2, time.Millisecond)
	require.Zero(t, admitted.Load())

	require.Eventually(t, func() bool { return admitted.Load() == limit }, window*2, time.Millisecond)
	require.Never(t, func() bool { return admitted.Load() > limit }, window/3, 5*time.Millisecond)
	require.Equal(t, waitersNum-limit, limiter.Snapshot().Waiting)

	require.Eventually(t, func() bool { return admitted.Load() == waitersNum }, window, time.Millisecond)
	wg.Wait()
}

func TestLimiter_NeverExceedsLimitUnderLoad(t *testing.T) {
	const limit = 4
	const callersNum = 40
	const window = 100 * time.Millisecond

	metrics := &countingMetrics{}
	limiter, err := New(Config{Window: window, Limit: limit}, WithMetricsCollector(metrics))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < callersNum; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for limiter.AcquireContext(ctx) == nil {
			}
		}()
	}

	time.Sleep(window*3 + window/2)
	limiter.Shutdown()

	// All permits of the last window are consumed since demand always exceeds supply.
	require.Eventually(t, func() bool {
		return metrics.admitted.Load() == metrics.resets.Load()*limit
	}, window, time.Millisecond)
	require.Never(t, func() bool {
		return metrics.admitted.Load() > metrics.resets.Load()*limit
	}, window, 5*time.Millisecond)

	cancel()
	wg.Wait()
	require.Equal(t, int32(callersNum), metrics.interrupted.Load())
	require.GreaterOrEqual(t, metrics.resets.Load(), int32(3))
}

func TestLimiter_ResetDropsLeftoverPermits(t *testing.T) {
	const window = 100 * time.Millisecond
	metrics := &countingMetrics{}
	limiter, err := New(Config{Window: window, Limit: 3}, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer limiter.Shutdown()

	require.True(t, limiter.TryAcquire())
	require.Equal(t, 2, limiter.Available())

	time.Sleep(window * 2)
	require.Equal(t, 3, limiter.Available(), "unused permits must not roll over")
	require.GreaterOrEqual(t, metrics.dropped.Load(), int32(2))
}

func TestLimiter_Shutdown(t *testing.T) {
	const window = 50 * time.Millisecond
	metrics := &countingMetrics{}
	limiter, err := New(Config{Window: window, Limit: 1}, WithMetricsCollector(metrics))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return metrics.resets.Load() >= 2 }, window*4, time.Millisecond)

	limiter.Shutdown()
	resetsAfterShutdown := metrics.resets.Load()
	require.NotPanics(t, limiter.Shutdown)

	time.Sleep(window * 3)
	require.Equal(t, resetsAfterShutdown, metrics.resets.Load())

	// Blocked callers are not woken up by shutdown.
	limiter.TryAcquire()
	ctx, cancel := context.WithTimeout(context.Background(), window*2)
	defer cancel()
	err = limiter.AcquireContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_ShutdownFromManyGoroutines(t *testing.T) {
	limiter, err := New(Config{Window: 10 * time.Millisecond, Limit: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Shutdown()
		}()
	}
	wg.Wait()
}

func TestLimiter_IndependentInstances(t *testing.T) {
	first, err := New(Config{Window: time.Hour, Limit: 1})
	require.NoError(t, err)
	defer first.Shutdown()
	second, err := New(Config{Window: time.Hour, Limit: 2})
	require.NoError(t, err)

	require.True(t, first.TryAcquire())
	require.False(t, first.TryAcquire())
	require.Equal(t, 2, second.Available())

	second.Shutdown()
	require.Equal(t, 0, first.Available())
}

func TestLimiter_AcquireContextInterrupted(t *testing.T) {
	metrics := &countingMetrics{}
	limiter, err := New(Config{Window: time.Hour, Limit: 1}, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer limiter.Shutdown()

	require.NoError(t, limiter.AcquireContext(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- limiter.AcquireContext(ctx)
	}()
	require.Eventually(t, func() bool { return limiter.Snapshot().Waiting == 1 }, time.Second, time.Millisecond)
	cancel()

	err = <-errCh
	var waitErr *InterruptedWaitError
	require.True(t, errors.As(err, &waitErr))
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "wait for admission interrupted")
	require.Equal(t, 0, limiter.Snapshot().Waiting)
	require.Equal(t, int32(1), metrics.admitted.Load())
	require.Equal(t, int32(1), metrics.interrupted.Load())
	require.Equal(t, int32(1), metrics.maxWaiting.Load())
}

func TestLimiter_AcquireContextAlreadyCancelled(t *testing.T) {
	metrics := &countingMetrics{}
	limiter, err := New(Config{Window: time.Hour, Limit: 1}, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer limiter.Shutdown()
	require.Eventually(t, func() bool { return limiter.Available() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = limiter.AcquireContext(ctx)
	var waitErr *InterruptedWaitError
	require.True(t, errors.As(err, &waitErr))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, limiter.Available(), "permit must not be consumed")
	require.Equal(t, int32(0), metrics.admitted.Load())
	require.Equal(t, int32(1), metrics.interrupted.Load())

	require.NoError(t, limiter.AcquireContext(context.Background()))
}

func TestLimiter_Snapshot(t *testing.T) {
	fixedNow := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter, err := New(Config{Window: time.Hour, Limit: 2}, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	defer limiter.Shutdown()

	require.True(t, limiter.TryAcquire())
	require.Equal(t, Snapshot{
		Limit:       2,
		Window:      time.Hour,
		Available:   1,
		WindowStart: fixedNow,
	}, limiter.Snapshot())
	require.Equal(t, Config{Window: time.Hour, Limit: 2}, limiter.Config())
}
