/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/retry"
)

// Retry defaults.
const (
	DefaultMaxRetryAttempts                  = 3
	DefaultExponentialBackoffInitialInterval = time.Second
	DefaultExponentialBackoffMultiplier      = 2
)

// UnlimitedRetryAttempts makes the backoff policy the only limit of retries.
const UnlimitedRetryAttempts = -1

// RetryAttemptNumberHeader carries the number of the retry attempt (1 for the first retry).
const RetryAttemptNumberHeader = "X-Retry-Attempt"

// Gate admits outgoing requests. *windowlimit.Limiter satisfies it.
type Gate interface {
	AcquireContext(ctx context.Context) error
}

// CheckRetryFunc reports whether the request has to be sent again after doneRetryAttempts retries.
type CheckRetryFunc func(ctx context.Context, resp *http.Response, roundTripErr error, doneRetryAttempts int) (bool, error)

// RetryableRoundTripper repeats failed requests with delays computed by a backoff policy.
// When Gate is set, every repeated request waits for admission, so retries share the caller's rate limit.
type RetryableRoundTripper struct {
	Delegate       http.RoundTripper
	Logger         log.FieldLogger
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// MaxRetryAttempts doesn't count the first request, so up to MaxRetryAttempts+1 requests are sent.
	MaxRetryAttempts int
	CheckRetry       CheckRetryFunc

	// IgnoreRetryAfter makes the backoff policy win over the Retry-After response header.
	IgnoreRetryAfter bool
	BackoffPolicy    retry.Policy

	// Gate admits retry attempts. The first request is expected to be admitted by the caller.
	Gate Gate
}

// RetryableRoundTripperOpts represents options for RetryableRoundTripper.
// Zero values are replaced with defaults.
type RetryableRoundTripperOpts struct {
	Logger           log.FieldLogger
	LoggerProvider   func(ctx context.Context) log.FieldLogger
	MaxRetryAttempts int
	CheckRetryFunc   CheckRetryFunc
	IgnoreRetryAfter bool
	BackoffPolicy    retry.Policy
	Gate             Gate
}

// NewRetryableRoundTripper creates a RetryableRoundTripper with default options.
func NewRetryableRoundTripper(delegate http.RoundTripper) (*RetryableRoundTripper, error) {
	return NewRetryableRoundTripperWithOpts(delegate, RetryableRoundTripperOpts{})
}

// NewRetryableRoundTripperWithOpts creates a RetryableRoundTripper.
func NewRetryableRoundTripperWithOpts(
	delegate http.RoundTripper, opts RetryableRoundTripperOpts,
) (*RetryableRoundTripper, error) {
	rt := &RetryableRoundTripper{
		Delegate:         delegate,
		Logger:           opts.Logger,
		LoggerProvider:   opts.LoggerProvider,
		MaxRetryAttempts: opts.MaxRetryAttempts,
		CheckRetry:       opts.CheckRetryFunc,
		IgnoreRetryAfter: opts.IgnoreRetryAfter,
		BackoffPolicy:    opts.BackoffPolicy,
		Gate:             opts.Gate,
	}
	switch {
	case rt.MaxRetryAttempts == 0:
		rt.MaxRetryAttempts = DefaultMaxRetryAttempts
	case rt.MaxRetryAttempts < 0 && rt.MaxRetryAttempts != UnlimitedRetryAttempts:
		return nil, fmt.Errorf("incorrect max retry attempts")
	}
	if rt.Logger == nil {
		rt.Logger = log.NewDisabledLogger()
	}
	if rt.CheckRetry == nil {
		rt.CheckRetry = DefaultCheckRetry
	}
	if rt.BackoffPolicy == nil {
		rt.BackoffPolicy = DefaultBackoffPolicy
	}
	return rt, nil
}

// RoundTrip sends the request and repeats it while CheckRetry asks for it and the attempts and backoff allow.
// Every repeated request is a clone of the original one with RetryAttemptNumberHeader set.
func (rt *RetryableRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer func(body io.Closer) { _ = body.Close() }(req.Body)
	}
	rewind, err := makeRequestBodyRewindable(req)
	if err != nil {
		return nil, &RetryableRoundTripperError{Inner: err}
	}
	if err = rewind(req); err != nil {
		return nil, &RetryableRoundTripperError{Inner: err}
	}

	a := retryAttempts{
		rt:      rt,
		ctx:     req.Context(),
		logger:  rt.logger(req.Context()),
		backOff: retry.NewOverridableBackOff(rt.BackoffPolicy.NewBackOff()),
	}
	resp, roundTripErr := rt.Delegate.RoundTrip(req)
	for a.done = 1; a.shouldRetry(resp, roundTripErr); a.done++ {
		retryReq := req.Clone(a.ctx)
		retryReq.Header.Set(RetryAttemptNumberHeader, strconv.Itoa(a.done))
		if rewindErr := rewind(retryReq); rewindErr != nil {
			a.logger.Error(fmt.Sprintf(
				"failed to rewind request body between retry attempts, %d request(s) done", a.done), log.Error(rewindErr))
			break
		}
		if roundTripErr == nil {
			if drainErr := drainResponseBody(resp); drainErr != nil {
				a.logger.Error("failed to drain previous response body between retry attempts", log.Error(drainErr))
			}
		}
		resp, roundTripErr = rt.Delegate.RoundTrip(retryReq)
	}
	return resp, roundTripErr
}

// retryAttempts holds the state of retrying a single request.
type retryAttempts struct {
	rt      *RetryableRoundTripper
	ctx     context.Context
	logger  log.FieldLogger
	backOff *retry.OverridableBackOff
	done    int // number of sent requests
}

// shouldRetry decides on the next attempt and, if it's going to happen, waits for it.
func (a *retryAttempts) shouldRetry(resp *http.Response, roundTripErr error) bool {
	needRetry, err := a.rt.CheckRetry(a.ctx, resp, roundTripErr, a.done-1)
	if err != nil {
		a.logger.Error(fmt.Sprintf("failed to check if retry is needed, %d request(s) done", a.done), log.Error(err))
		return false
	}
	if !needRetry {
		return false
	}
	if a.rt.MaxRetryAttempts > 0 && a.done > a.rt.MaxRetryAttempts {
		a.logger.Warnf("max retry attempts exceeded (%d), %d request(s) done", a.rt.MaxRetryAttempts, a.done)
		return false
	}
	if resp != nil && !a.rt.IgnoreRetryAfter {
		if retryAfter, ok := parseRetryAfterFromResponse(resp); ok {
			a.backOff.OverrideNext(retryAfter)
		}
	}
	delay := a.backOff.NextBackOff()
	if delay == backoff.Stop {
		return false
	}
	return a.wait(delay)
}

// wait sleeps for the backoff delay and then passes through the gate, if any.
func (a *retryAttempts) wait(delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-a.ctx.Done():
		a.logger.Warnf("context canceled (%v) while waiting for the next retry attempt, %d request(s) done",
			a.ctx.Err(), a.done)
		return false
	case <-timer.C:
	}
	if a.rt.Gate == nil {
		return true
	}
	if err := a.rt.Gate.AcquireContext(a.ctx); err != nil {
		a.logger.Warn(fmt.Sprintf("retry attempt is not admitted, %d request(s) done", a.done), log.Error(err))
		return false
	}
	return true
}

func (rt *RetryableRoundTripper) logger(ctx context.Context) log.FieldLogger {
	if rt.LoggerProvider != nil {
		if logger := rt.LoggerProvider(ctx); logger != nil {
			return logger
		}
	}
	return rt.Logger
}

// RetryableRoundTripperError means the request couldn't be prepared for retrying and wasn't sent.
type RetryableRoundTripperError struct {
	Inner error
}

func (e *RetryableRoundTripperError) Error() string {
	return "retryable round trip: " + e.Inner.Error()
}

// Unwrap returns the underlying error.
func (e *RetryableRoundTripperError) Unwrap() error {
	return e.Inner
}

// DefaultCheckRetry retries temporary network errors, 429 and 503 for any request.
// Other 5xx responses are retried only for idempotent requests. POST and PATCH requests become idempotent
// when their context carries the hint (see NewContextWithIdempotentHint).
func DefaultCheckRetry(
	ctx context.Context, resp *http.Response, roundTripErr error, doneRetryAttempts int,
) (needRetry bool, err error) {
	if roundTripErr != nil {
		return CheckErrorIsTemporary(roundTripErr), nil
	}
	if resp == nil {
		return false, fmt.Errorf("both response and round trip error are nil")
	}
	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable:
		return true, nil
	case code >= http.StatusInternalServerError:
		return GetIdempotentHintFromContext(ctx) || isIdempotentMethod(resp.Request), nil
	default:
		return false, nil
	}
}

func isIdempotentMethod(req *http.Request) bool {
	if req == nil {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// DefaultBackoffPolicy doubles the delay starting from one second.
var DefaultBackoffPolicy = retry.ExponentialBackoffPolicy{
	InitialInterval: DefaultExponentialBackoffInitialInterval,
	Multiplier:      DefaultExponentialBackoffMultiplier,
}

// CheckErrorIsTemporary reports whether err is io.EOF (the connection was dropped) or a temporary error.
func CheckErrorIsTemporary(err error) bool {
	var tempErr interface{ Temporary() bool }
	switch {
	case errors.Is(err, io.EOF):
		return true
	case errors.As(err, &tempErr):
		return tempErr.Temporary()
	default:
		return false
	}
}

// parseRetryAfterFromResponse reads Retry-After in either delay-seconds or HTTP-date form.
// A date in the past means "retry now".
func parseRetryAfterFromResponse(resp *http.Response) (time.Duration, bool) {
	val := resp.Header.Get("Retry-After")
	if val == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(val)
	if err != nil {
		return 0, false
	}
	if d := time.Until(at); d > 0 {
		return d, true
	}
	return 0, true
}
