/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"strings"
	"sync"
)

// StopOrder defines how CompositeUnit stops its units.
type StopOrder int

// Stop orders.
const (
	// StopConcurrently stops all units at the same time.
	StopConcurrently StopOrder = iota

	// StopInReverseOrder stops units one by one starting from the last one.
	// It's used when a unit (e.g. HTTP server) depends on an earlier one (e.g. an outbound client).
	StopInReverseOrder
)

// CompositeUnit represents a composition of service units and implements Composite design pattern.
type CompositeUnit struct {
	Units     []Unit
	StopOrder StopOrder
}

var _ Unit = (*CompositeUnit)(nil)
var _ MetricsRegisterer = (*CompositeUnit)(nil)

// NewCompositeUnit creates a new composite unit that stops its units concurrently.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{Units: units}
}

// NewSequentialCompositeUnit creates a new composite unit that stops its units in reverse order.
func NewSequentialCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{Units: units, StopOrder: StopInReverseOrder}
}

// Start starts all units concurrently and blocks until all Start calls return.
// If any unit fails, the rest are stopped (not gracefully) and CompositeUnitError is sent to fatalErr.
func (cu *CompositeUnit) Start(fatalErr chan<- error) {
	unitErrs := make([]chan error, len(cu.Units))
	var wg sync.WaitGroup
	failed := make(chan struct{})
	var failOnce sync.Once
	for i := range cu.Units {
		unitErrs[i] = make(chan error, 1)
		wg.Add(1)
		go func(u Unit, errCh chan error) {
			defer wg.Done()
			u.Start(errCh)
			if len(errCh) != 0 {
				failOnce.Do(func() { close(failed) })
			}
		}(cu.Units[i], unitErrs[i])
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		select {
		case <-failed:
		default:
			return
		}
	case <-failed:
	}

	stopErr := cu.Stop(false)
	var errs []error
	for _, errCh := range unitErrs {
		select {
		case err := <-errCh:
			errs = append(errs, err)
		default:
		}
	}
	var cuErr *CompositeUnitError
	if errors.As(stopErr, &cuErr) {
		errs = append(errs, cuErr.UnitErrors...)
	}
	if len(errs) > 0 {
		fatalErr <- &CompositeUnitError{errs}
	}
}

// Stop stops all units according to StopOrder.
// Errors that occurred while stopping are collected into a single CompositeUnitError.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	var errs []error
	if cu.StopOrder == StopInReverseOrder {
		for i := len(cu.Units) - 1; i >= 0; i-- {
			if err := cu.Units[i].Stop(gracefully); err != nil {
				errs = append(errs, err)
			}
		}
	} else {
		results := make(chan error, len(cu.Units))
		var wg sync.WaitGroup
		for _, u := range cu.Units {
			wg.Add(1)
			go func(u Unit) {
				defer wg.Done()
				results <- u.Stop(gracefully)
			}(u)
		}
		wg.Wait()
		close(results)
		for err := range results {
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return &CompositeUnitError{errs}
	}
	return nil
}

// MustRegisterMetrics registers metrics of all units that implement MetricsRegisterer.
func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

// UnregisterMetrics unregisters metrics of all units that implement MetricsRegisterer.
func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}

// CompositeUnitError is an error which may occur in CompositeUnit's methods.
type CompositeUnitError struct {
	UnitErrors []error
}

func (cue *CompositeUnitError) Error() string {
	msgs := make([]string, 0, len(cue.UnitErrors))
	for _, err := range cue.UnitErrors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
