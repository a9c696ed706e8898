/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import "time"

// Config represents limiter parameters. It cannot be changed after the limiter is created.
type Config struct {
	// Window is the duration of a single window.
	Window time.Duration `mapstructure:"window" yaml:"window" json:"window"`

	// Limit is the number of permits granted per window.
	Limit int `mapstructure:"limit" yaml:"limit" json:"limit"`
}

// Validate checks that the config may be used for creating a limiter.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return &ConfigurationError{Reason: ReasonNonPositiveLimit}
	}
	if c.Window <= 0 {
		return &ConfigurationError{Reason: ReasonNonPositiveWindow}
	}
	return nil
}
