/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration is matched (via errors.Is) by all errors New returns for a bad Config.
var ErrInvalidConfiguration = errors.New("invalid window limiter configuration")

// Configuration error reasons.
const (
	ReasonNonPositiveLimit  = "Request limit must be a positive number."
	ReasonNonPositiveWindow = "Window duration must be a positive duration."
)

// ConfigurationError is returned by New when the passed Config cannot be used.
// Its message is the bare reason so callers may show it as is.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// InterruptedWaitError is returned by Limiter.AcquireContext when the context is done
// before a permit is granted. No permit is held by the caller in this case.
type InterruptedWaitError struct {
	Err    error
	Waited time.Duration
}

func (e *InterruptedWaitError) Error() string {
	return fmt.Sprintf("wait for admission interrupted after %s: %v", e.Waited, e.Err)
}

// Unwrap returns the context error that interrupted the wait.
func (e *InterruptedWaitError) Unwrap() error {
	return e.Err
}
