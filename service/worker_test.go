/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-docgate/log/logtest"
)

func TestPeriodicWorker(t *testing.T) {
	t.Run("runs until context is canceled", func(t *testing.T) {
		var runs atomic.Int32
		logger := logtest.NewRecorder()
		worker := WorkerFunc(func(ctx context.Context) error {
			if runs.Inc()%2 == 0 {
				return errors.New("temporary failure")
			}
			return nil
		})
		pw := NewPeriodicWorker(worker, 10*time.Millisecond, logger)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- pw.Run(ctx) }()
		require.Eventually(t, func() bool { return runs.Load() >= 3 }, 3*time.Second, 5*time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		_, found := logger.FindEntry("periodic worker run failed")
		require.True(t, found)
		_, found = logger.FindEntry("periodic worker stopped")
		require.True(t, found)
	})

	t.Run("stops on ErrPeriodicWorkerStop", func(t *testing.T) {
		var runs atomic.Int32
		worker := WorkerFunc(func(ctx context.Context) error {
			if runs.Inc() == 2 {
				return ErrPeriodicWorkerStop
			}
			return nil
		})
		pw := NewPeriodicWorkerWithOpts(worker, time.Millisecond, nil, PeriodicWorkerOpts{InitialDelay: time.Millisecond})
		require.NoError(t, pw.Run(context.Background()))
		require.Equal(t, int32(2), runs.Load())
	})

	t.Run("survives panic", func(t *testing.T) {
		var runs atomic.Int32
		logger := logtest.NewRecorder()
		worker := WorkerFunc(func(ctx context.Context) error {
			if runs.Inc() == 1 {
				panic("boom")
			}
			return ErrPeriodicWorkerStop
		})
		pw := NewPeriodicWorker(worker, time.Millisecond, logger)
		require.NoError(t, pw.Run(context.Background()))
		require.Equal(t, int32(2), runs.Load())
		_, found := logger.FindEntry("panic in periodic worker: boom")
		require.True(t, found)
	})
}

func TestWorkerUnit(t *testing.T) {
	t.Run("graceful stop waits for worker", func(t *testing.T) {
		var finished atomic.Bool
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			return nil
		}))
		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, unit.Stop(true))
		require.True(t, finished.Load())
		require.Empty(t, fatalErr)
	})

	t.Run("stop timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: 20 * time.Millisecond})
		go unit.Start(make(chan error, 1))
		time.Sleep(10 * time.Millisecond)

		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errors.New("worker failed")
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.EqualError(t, <-fatalErr, "worker failed")
	})

	t.Run("stop without start", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error { return nil }))
		require.NoError(t, unit.Stop(true))
	})
}
