/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-docgate/log/logtest"
	"github.com/acronis/go-docgate/retry"
)

type reqInfo struct {
	method             string
	body               []byte
	retryAttemptHeader string
}

type testServerForRetryableRoundTripper struct {
	*httptest.Server
	sync.RWMutex
	reqInfos   []reqInfo
	respCodes  []int
	retryAfter string
}

func (s *testServerForRetryableRoundTripper) ReqInfos() []reqInfo {
	s.RLock()
	defer s.RUnlock()
	res := make([]reqInfo, len(s.reqInfos))
	copy(res, s.reqInfos)
	return res
}

// Reset sets response codes that will be returned in order.
func (s *testServerForRetryableRoundTripper) Reset(respCodes ...int) {
	s.Lock()
	defer s.Unlock()
	s.reqInfos = nil
	s.respCodes = respCodes
}

func newTestServerForRetryableRoundTripper() *testServerForRetryableRoundTripper {
	srv := &testServerForRetryableRoundTripper{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		reqBody, _ := io.ReadAll(r.Body)

		srv.Lock()
		srv.reqInfos = append(srv.reqInfos, reqInfo{
			method:             r.Method,
			body:               reqBody,
			retryAttemptHeader: r.Header.Get(RetryAttemptNumberHeader),
		})
		respCode := http.StatusOK
		if len(srv.respCodes) > 0 {
			respCode, srv.respCodes = srv.respCodes[0], srv.respCodes[1:]
		}
		retryAfter := srv.retryAfter
		srv.Unlock()

		if retryAfter != "" {
			rw.Header().Set("Retry-After", retryAfter)
		}
		rw.WriteHeader(respCode)
		_, _ = rw.Write([]byte("body-" + strconv.Itoa(respCode)))
	}))
	return srv
}

type countingGate struct {
	acquired atomic.Int32
	err      error
}

func (g *countingGate) AcquireContext(ctx context.Context) error {
	if g.err != nil {
		return g.err
	}
	g.acquired.Inc()
	return nil
}

func fastPolicy(maxAttempts int) retry.Policy {
	return retry.NewConstantBackoffPolicy(time.Millisecond, maxAttempts)
}

func TestRetryableRoundTripper_RoundTrip(t *testing.T) {
	srv := newTestServerForRetryableRoundTripper()
	defer srv.Close()

	t.Run("retries GET until success", func(t *testing.T) {
		srv.Reset(http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK)
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy(0)})
		require.NoError(t, err)
		client := &http.Client{Transport: rt}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		infos := srv.ReqInfos()
		require.Len(t, infos, 3)
		require.Equal(t, "", infos[0].retryAttemptHeader)
		require.Equal(t, "1", infos[1].retryAttemptHeader)
		require.Equal(t, "2", infos[2].retryAttemptHeader)
	})

	t.Run("POST body is resent on every attempt", func(t *testing.T) {
		srv.Reset(http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusOK)
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy(0)})
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPost, srv.URL, bytes.NewReader([]byte(`{"doc_id":"1"}`)))
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		infos := srv.ReqInfos()
		require.Len(t, infos, 3)
		for _, info := range infos {
			require.Equal(t, http.MethodPost, info.method)
			require.Equal(t, `{"doc_id":"1"}`, string(info.body))
		}
	})

	t.Run("POST is not retried on 500 without idempotent hint", func(t *testing.T) {
		srv.Reset(http.StatusInternalServerError, http.StatusOK)
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy(0)})
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodPost, srv.URL, bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 1)
	})

	t.Run("POST is retried on 500 with idempotent hint", func(t *testing.T) {
		srv.Reset(http.StatusInternalServerError, http.StatusOK)
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy(0)})
		require.NoError(t, err)

		ctx := NewContextWithIdempotentHint(context.Background(), true)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL, bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 2)
	})

	t.Run("max retry attempts exceeded", func(t *testing.T) {
		srv.Reset(http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable,
			http.StatusServiceUnavailable)
		logRecorder := logtest.NewRecorder()
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			BackoffPolicy:    fastPolicy(0),
			MaxRetryAttempts: 2,
			Logger:           logRecorder,
		})
		require.NoError(t, err)
		client := &http.Client{Transport: rt}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 3)
		_, found := logRecorder.FindEntry("max retry attempts exceeded (2), 3 request(s) done")
		require.True(t, found)
	})

	t.Run("stopped by backoff policy", func(t *testing.T) {
		srv.Reset(http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			BackoffPolicy:    fastPolicy(1),
			MaxRetryAttempts: UnlimitedRetryAttempts,
		})
		require.NoError(t, err)
		client := &http.Client{Transport: rt}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 2)
	})

	t.Run("each retry attempt passes through the gate", func(t *testing.T) {
		srv.Reset(http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK)
		gate := &countingGate{}
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			BackoffPolicy: fastPolicy(0),
			Gate:          gate,
		})
		require.NoError(t, err)
		client := &http.Client{Transport: rt}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 3)
		require.Equal(t, int32(2), gate.acquired.Load())
	})

	t.Run("gate refusal returns the last response", func(t *testing.T) {
		srv.Reset(http.StatusTooManyRequests, http.StatusOK)
		gate := &countingGate{err: errors.New("not admitted")}
		logRecorder := logtest.NewRecorder()
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			BackoffPolicy: fastPolicy(0),
			Gate:          gate,
			Logger:        logRecorder,
		})
		require.NoError(t, err)
		client := &http.Client{Transport: rt}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "body-429", string(body))
		require.Len(t, srv.ReqInfos(), 1)
		_, found := logRecorder.FindEntry("retry attempt is not admitted, 1 request(s) done")
		require.True(t, found)
	})

	t.Run("Retry-After header is respected", func(t *testing.T) {
		srv.Reset(http.StatusTooManyRequests, http.StatusOK)
		srv.Lock()
		srv.retryAfter = "1"
		srv.Unlock()
		defer func() {
			srv.Lock()
			srv.retryAfter = ""
			srv.Unlock()
		}()
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{BackoffPolicy: fastPolicy(0)})
		require.NoError(t, err)
		client := &http.Client{Transport: rt}

		startTime := time.Now()
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.GreaterOrEqual(t, time.Since(startTime), time.Second)
	})

	t.Run("context canceled while waiting for the next attempt", func(t *testing.T) {
		srv.Reset(http.StatusServiceUnavailable, http.StatusOK)
		rt, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{
			BackoffPolicy: retry.NewConstantBackoffPolicy(time.Hour, 0),
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := rt.RoundTrip(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Len(t, srv.ReqInfos(), 1)
	})
}

func TestNewRetryableRoundTripperWithOpts(t *testing.T) {
	_, err := NewRetryableRoundTripperWithOpts(http.DefaultTransport, RetryableRoundTripperOpts{MaxRetryAttempts: -2})
	require.EqualError(t, err, "incorrect max retry attempts")

	rt, err := NewRetryableRoundTripper(http.DefaultTransport)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxRetryAttempts, rt.MaxRetryAttempts)
	require.NotNil(t, rt.CheckRetry)
	require.NotNil(t, rt.BackoffPolicy)
}

func TestCheckErrorIsTemporary(t *testing.T) {
	require.True(t, CheckErrorIsTemporary(io.EOF))
	require.True(t, CheckErrorIsTemporary(&RetryableRoundTripperError{Inner: io.EOF}))
	require.False(t, CheckErrorIsTemporary(errors.New("permanent")))
}

func TestParseRetryAfterFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantOK  bool
		minimum bool
	}{
		{name: "empty", value: "", wantOK: false},
		{name: "seconds", value: "3", want: 3 * time.Second, wantOK: true},
		{name: "negative", value: "-1", wantOK: false},
		{name: "garbage", value: "soon", wantOK: false},
		{name: "date in the past", value: "Wed, 21 Oct 2015 07:28:00 GMT", want: 0, wantOK: true},
		{name: "date in the future", value: time.Now().Add(time.Hour).UTC().Format(http.TimeFormat),
			want: 59 * time.Minute, wantOK: true, minimum: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.value != "" {
				resp.Header.Set("Retry-After", tt.value)
			}
			got, ok := parseRetryAfterFromResponse(resp)
			require.Equal(t, tt.wantOK, ok)
			if tt.minimum {
				require.GreaterOrEqual(t, got, tt.want)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}
