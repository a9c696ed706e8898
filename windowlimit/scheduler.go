/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/acronis/go-docgate/log"
)

type schedulerState int

const (
	schedulerStateIdle schedulerState = iota
	schedulerStateRunning
	schedulerStateStopped
)

// scheduler calls fire immediately on start and then every interval on a fixed-rate schedule.
type scheduler struct {
	interval time.Duration
	fire     func()
	logger   log.FieldLogger

	mu      sync.Mutex
	state   schedulerState
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newScheduler(interval time.Duration, fire func(), logger log.FieldLogger) *scheduler {
	return &scheduler{
		interval: interval,
		fire:     fire,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *scheduler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != schedulerStateIdle {
		return
	}
	s.state = schedulerStateRunning
	s.started = true

	s.safeFire()
	go s.loop(time.NewTicker(s.interval))
}

func (s *scheduler) loop(ticker *time.Ticker) {
	defer close(s.doneCh)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}
		select {
		case <-s.stopCh:
			return
		default:
		}
		s.safeFire()
	}
}

// stop cancels all future firings and waits for the one in progress (if any) to complete.
func (s *scheduler) stop() {
	s.mu.Lock()
	if s.state == schedulerStateRunning {
		close(s.stopCh)
	}
	s.state = schedulerStateStopped
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.doneCh
	}
}

func (s *scheduler) safeFire() {
	defer func() {
		if p := recover(); p != nil {
			const logStackSize = 8192
			stack := make([]byte, logStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			s.logger.Error(fmt.Sprintf("panic in window reset: %+v", p), log.Bytes("stack", stack))
		}
	}()
	s.fire()
}
