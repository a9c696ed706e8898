/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package windowlimit provides a fixed-window blocking admission limiter.
//
// A Limiter grants at most Config.Limit permits per Config.Window. Permits are consumed, never returned.
// At every window boundary the quota is hard-reset to the limit: leftovers are dropped and all blocked
// callers are woken up to compete for the fresh permits. Callers that do not get one keep waiting
// for the next window.
//
// The first window starts when the limiter is created. Boundaries then follow a fixed schedule
// (Window, 2*Window, ...) measured from creation, independent of how long resets take.
//
// Typical usage:
//
//	limiter, err := windowlimit.New(windowlimit.Config{Window: time.Second, Limit: 10})
//	if err != nil {
//		return err
//	}
//	defer limiter.Shutdown()
//
//	if err = limiter.AcquireContext(ctx); err != nil {
//		return err // *InterruptedWaitError
//	}
//	// do the throttled work
package windowlimit
