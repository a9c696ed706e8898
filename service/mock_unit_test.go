/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

type mockUnit struct {
	name      string
	stopErr   bool
	startErr  error
	stopped   chan struct{}
	stopOnce  sync.Once
	stopOrder *stopRecorder

	running              atomic.Bool
	startCalled          atomic.Int32
	stopCalled           atomic.Int32
	stopGracefullyCalled atomic.Int32
	registerCalled       atomic.Int32
	unregisterCalled     atomic.Int32
}

type stopRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *stopRecorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *stopRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func newMockUnit(name string) *mockUnit {
	return &mockUnit{name: name, stopped: make(chan struct{})}
}

func (u *mockUnit) Start(fatalErr chan<- error) {
	u.startCalled.Inc()
	if u.startErr != nil {
		fatalErr <- u.startErr
		return
	}
	u.running.Store(true)
	<-u.stopped
	u.running.Store(false)
}

func (u *mockUnit) Stop(gracefully bool) error {
	u.stopCalled.Inc()
	if gracefully {
		u.stopGracefullyCalled.Inc()
	}
	if u.stopOrder != nil {
		u.stopOrder.add(u.name)
	}
	u.stopOnce.Do(func() { close(u.stopped) })
	if u.stopErr {
		return fmt.Errorf("%s: internal error", u.name)
	}
	return nil
}

func (u *mockUnit) MustRegisterMetrics() {
	u.registerCalled.Inc()
}

func (u *mockUnit) UnregisterMetrics() {
	u.unregisterCalled.Inc()
}
