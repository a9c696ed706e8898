/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
)

// LoggingMode represents a mode of logging.
type LoggingMode string

// Logging modes.
const (
	LoggingModeNone   LoggingMode = "none"
	LoggingModeAll    LoggingMode = "all"
	LoggingModeFailed LoggingMode = "failed"
)

// IsValid checks if the logger mode is valid.
func (lm LoggingMode) IsValid() bool {
	switch lm {
	case LoggingModeNone, LoggingModeAll, LoggingModeFailed:
		return true
	}
	return false
}

// LoggingRoundTripper implements http.RoundTripper for logging outgoing requests.
type LoggingRoundTripper struct {
	Delegate    http.RoundTripper
	RequestType string
	Opts        LoggingRoundTripperOpts
}

// LoggingRoundTripperOpts represents an options for LoggingRoundTripper.
type LoggingRoundTripperOpts struct {
	// Logger is used when there is no logger in the request context.
	Logger log.FieldLogger

	// LoggerProvider is a function that provides a context-specific logger.
	// middleware.GetLoggerFromContext is used by default.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// Mode of logging: none, all, failed. "all" is used by default.
	Mode LoggingMode

	// SlowRequestThreshold makes successful requests faster than it not logged in the "all" mode.
	SlowRequestThreshold time.Duration
}

// NewLoggingRoundTripper creates an HTTP transport that logs requests.
func NewLoggingRoundTripper(delegate http.RoundTripper, requestType string) *LoggingRoundTripper {
	return NewLoggingRoundTripperWithOpts(delegate, requestType, LoggingRoundTripperOpts{})
}

// NewLoggingRoundTripperWithOpts creates an HTTP transport that logs requests with options.
func NewLoggingRoundTripperWithOpts(
	delegate http.RoundTripper, requestType string, opts LoggingRoundTripperOpts,
) *LoggingRoundTripper {
	if opts.Mode == "" {
		opts.Mode = LoggingModeAll
	}
	return &LoggingRoundTripper{Delegate: delegate, RequestType: requestType, Opts: opts}
}

func (rt *LoggingRoundTripper) logger(ctx context.Context) log.FieldLogger {
	if rt.Opts.LoggerProvider != nil {
		if logger := rt.Opts.LoggerProvider(ctx); logger != nil {
			return logger
		}
	}
	if logger := middleware.GetLoggerFromContext(ctx); logger != nil {
		return logger
	}
	return rt.Opts.Logger
}

// RoundTrip executes the request and logs its outcome.
// The Authorization header value is never logged as is.
func (rt *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Opts.Mode == LoggingModeNone {
		return rt.Delegate.RoundTrip(r)
	}
	logger := rt.logger(r.Context())
	if logger == nil {
		return rt.Delegate.RoundTrip(r)
	}

	startTime := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	elapsed := time.Since(startTime)

	failed := err != nil || (resp != nil && resp.StatusCode >= http.StatusBadRequest)
	if !failed && (rt.Opts.Mode == LoggingModeFailed || elapsed < rt.Opts.SlowRequestThreshold) {
		return resp, err
	}

	fields := []log.Field{
		log.String("method", r.Method),
		log.String("url", r.URL.String()),
		log.String("request_type", rt.RequestType),
		log.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		fields = append(fields, log.Secret("authorization", auth))
	}
	msg := fmt.Sprintf("client http request %s %s done in %.3fs", r.Method, r.URL.String(), elapsed.Seconds())
	switch {
	case err != nil:
		logger.Error(msg, append(fields, log.Error(err))...)
	case failed:
		logger.Warn(msg, append(fields, log.Int("status", resp.StatusCode))...)
	default:
		logger.Info(msg, append(fields, log.Int("status", resp.StatusCode))...)
	}
	return resp, err
}
