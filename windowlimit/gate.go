/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import (
	"context"
	"sync"
	"time"
)

// gate is a counting permit pool refilled only by reset.
// Every window has its own wake channel which is closed by the reset that ends the window,
// so blocked callers wait on a channel and hold no lock while waiting.
type gate struct {
	limit int
	now   func() time.Time

	mu          sync.Mutex
	available   int
	windowStart time.Time
	wakeCh      chan struct{}
}

func newGate(limit int, now func() time.Time) *gate {
	return &gate{limit: limit, now: now, wakeCh: make(chan struct{})}
}

// tryAcquire takes a permit if one is available.
// Otherwise, it returns the channel that will be closed by the next reset.
func (g *gate) tryAcquire() (acquired bool, wakeCh <-chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.available > 0 {
		g.available--
		return true, nil
	}
	return false, g.wakeCh
}

func (g *gate) acquire(ctx context.Context) error {
	for {
		acquired, wakeCh := g.tryAcquire()
		if acquired {
			return nil
		}
		select {
		case <-wakeCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reset drops leftover permits, refills the pool up to the limit and wakes all blocked callers.
// It returns the number of dropped permits.
func (g *gate) reset() (dropped int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	dropped = g.available
	g.available = g.limit
	g.windowStart = g.now()
	close(g.wakeCh)
	g.wakeCh = make(chan struct{})
	return dropped
}

func (g *gate) snapshot() (available int, windowStart time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available, g.windowStart
}
