/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/acronis/go-docgate/log"
)

// Opts provides options for NewWithOpts function.
type Opts struct {
	// UserAgent is a user agent string.
	UserAgent string

	// RequestType is a type of the request (e.g. "crpt_create_document"). It's used in logs and metrics.
	RequestType string

	// Delegate is the innermost transport. http.DefaultTransport is used if it's nil.
	Delegate http.RoundTripper

	// Logger is used when there is no logger in the request context.
	Logger log.FieldLogger

	// LoggerProvider is a function that provides a context-specific logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// RequestIDProvider is a function that provides a request ID.
	RequestIDProvider func(ctx context.Context) string

	// Collector is a metrics collector. Metrics are not collected if it's nil.
	Collector MetricsCollector

	// Gate admits retry attempts (see RetryableRoundTripper.Gate).
	Gate Gate
}

// New wraps delegate transports with logging, metrics, user agent, request id and retries
// (according to the Config) and returns an HTTP client.
func New(cfg *Config) (*http.Client, error) {
	return NewWithOpts(cfg, Opts{})
}

// NewWithOpts is like New but allows customizing the chain with Opts.
// The retryable round tripper is the outermost one, so every attempt is logged and measured separately.
func NewWithOpts(cfg *Config, opts Opts) (*http.Client, error) {
	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}

	if cfg.Logger.Enabled {
		delegate = NewLoggingRoundTripperWithOpts(delegate, opts.RequestType, LoggingRoundTripperOpts{
			Logger:               opts.Logger,
			LoggerProvider:       opts.LoggerProvider,
			Mode:                 cfg.Logger.Mode,
			SlowRequestThreshold: cfg.Logger.SlowRequestThreshold,
		})
	}

	if cfg.Metrics.Enabled && opts.Collector != nil {
		delegate = NewMetricsRoundTripper(delegate, opts.RequestType, opts.Collector)
	}

	if opts.UserAgent != "" {
		delegate = NewUserAgentRoundTripper(delegate, opts.UserAgent)
	}

	requestIDRoundTripper := NewRequestIDRoundTripper(delegate)
	if opts.RequestIDProvider != nil {
		requestIDRoundTripper.RequestIDProvider = opts.RequestIDProvider
	}
	delegate = requestIDRoundTripper

	if cfg.Retries.Enabled {
		policy, err := cfg.Retries.GetPolicy()
		if err != nil {
			return nil, fmt.Errorf("create retry policy: %w", err)
		}
		maxAttempts := cfg.Retries.MaxAttempts
		if maxAttempts == 0 {
			maxAttempts = UnlimitedRetryAttempts
		}
		delegate, err = NewRetryableRoundTripperWithOpts(delegate, RetryableRoundTripperOpts{
			Logger:           opts.Logger,
			LoggerProvider:   opts.LoggerProvider,
			MaxRetryAttempts: maxAttempts,
			BackoffPolicy:    policy,
			Gate:             opts.Gate,
		})
		if err != nil {
			return nil, fmt.Errorf("create retryable round tripper: %w", err)
		}
	}

	return &http.Client{Transport: delegate, Timeout: cfg.Timeout}, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg *Config) *http.Client {
	client, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}
