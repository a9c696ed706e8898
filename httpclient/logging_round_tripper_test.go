/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-docgate/httpserver/middleware"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/log/logtest"
)

func newStatusServer(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(status)
	}))
}

func doRequest(t *testing.T, rt http.RoundTripper, ctx context.Context, url string, header http.Header) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func TestLoggingRoundTripper(t *testing.T) {
	okSrv := newStatusServer(http.StatusOK)
	defer okSrv.Close()
	failSrv := newStatusServer(http.StatusBadRequest)
	defer failSrv.Close()

	t.Run("all mode logs successful request", func(t *testing.T) {
		logger := logtest.NewRecorder()
		rt := NewLoggingRoundTripperWithOpts(http.DefaultTransport, "crpt", LoggingRoundTripperOpts{Logger: logger})
		doRequest(t, rt, context.Background(), okSrv.URL, nil)

		entries := logger.Entries()
		require.Len(t, entries, 1)
		require.Equal(t, log.LevelInfo, entries[0].Level)
		require.Contains(t, entries[0].Text, "client http request POST "+okSrv.URL)
		field, found := entries[0].FindField("request_type")
		require.True(t, found)
		require.Equal(t, "crpt", string(field.Bytes))
	})

	t.Run("failed mode skips successful request", func(t *testing.T) {
		logger := logtest.NewRecorder()
		rt := NewLoggingRoundTripperWithOpts(http.DefaultTransport, "crpt",
			LoggingRoundTripperOpts{Logger: logger, Mode: LoggingModeFailed})
		doRequest(t, rt, context.Background(), okSrv.URL, nil)
		require.Empty(t, logger.Entries())

		doRequest(t, rt, context.Background(), failSrv.URL, nil)
		entries := logger.Entries()
		require.Len(t, entries, 1)
		require.Equal(t, log.LevelWarn, entries[0].Level)
		field, found := entries[0].FindField("status")
		require.True(t, found)
		require.Equal(t, http.StatusBadRequest, int(field.Int))
	})

	t.Run("fast successful requests are not logged when threshold is set", func(t *testing.T) {
		logger := logtest.NewRecorder()
		rt := NewLoggingRoundTripperWithOpts(http.DefaultTransport, "crpt",
			LoggingRoundTripperOpts{Logger: logger, SlowRequestThreshold: time.Hour})
		doRequest(t, rt, context.Background(), okSrv.URL, nil)
		require.Empty(t, logger.Entries())
	})

	t.Run("none mode logs nothing", func(t *testing.T) {
		logger := logtest.NewRecorder()
		rt := NewLoggingRoundTripperWithOpts(http.DefaultTransport, "crpt",
			LoggingRoundTripperOpts{Logger: logger, Mode: LoggingModeNone})
		doRequest(t, rt, context.Background(), failSrv.URL, nil)
		require.Empty(t, logger.Entries())
	})

	t.Run("authorization is masked", func(t *testing.T) {
		logger := logtest.NewRecorder()
		rt := NewLoggingRoundTripperWithOpts(http.DefaultTransport, "crpt", LoggingRoundTripperOpts{Logger: logger})
		doRequest(t, rt, context.Background(), okSrv.URL, http.Header{"Authorization": []string{"signature-value"}})

		entries := logger.Entries()
		require.Len(t, entries, 1)
		field, found := entries[0].FindField("authorization")
		require.True(t, found)
		require.Equal(t, "sign***", string(field.Bytes))
	})

	t.Run("logger from context has priority", func(t *testing.T) {
		defaultLogger := logtest.NewRecorder()
		ctxLogger := logtest.NewRecorder()
		rt := NewLoggingRoundTripperWithOpts(http.DefaultTransport, "crpt", LoggingRoundTripperOpts{Logger: defaultLogger})
		doRequest(t, rt, middleware.NewContextWithLogger(context.Background(), ctxLogger), okSrv.URL, nil)
		require.Empty(t, defaultLogger.Entries())
		require.Len(t, ctxLogger.Entries(), 1)
	})
}

func TestLoggingMode_IsValid(t *testing.T) {
	require.True(t, LoggingModeAll.IsValid())
	require.True(t, LoggingModeFailed.IsValid())
	require.True(t, LoggingModeNone.IsValid())
	require.False(t, LoggingMode("some").IsValid())
}
