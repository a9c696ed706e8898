/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-docgate/log/logtest"
	"github.com/acronis/go-docgate/testutil"
)

const testDomain = "TestDomain"

type responseRecorderReturnedErrorOnWrite struct {
	*httptest.ResponseRecorder
}

func (rw *responseRecorderReturnedErrorOnWrite) Write(_ []byte) (int, error) {
	return 0, fmt.Errorf("error on write")
}

func TestRespondJSON(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondJSON(resp, map[string]interface{}{"name": "<Bob>", "age": 12}, logger)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, ContentTypeAppJSON, resp.Header().Get("Content-Type"))
		require.JSONEq(t, `{"name":"<Bob>","age":12}`, resp.Body.String())
		require.Contains(t, resp.Body.String(), "<Bob>")
		require.Empty(t, logger.Entries())
	})

	t.Run("marshaling error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondJSON(resp, make(chan bool), logger)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		require.Empty(t, resp.Body.String())
		_, found := logger.FindEntry("failed to marshal response body to JSON")
		require.True(t, found)
	})

	t.Run("write error", func(t *testing.T) {
		resp := &responseRecorderReturnedErrorOnWrite{httptest.NewRecorder()}
		logger := logtest.NewRecorder()
		RespondCodeAndJSON(resp, http.StatusCreated, map[string]string{}, logger)
		require.Equal(t, http.StatusCreated, resp.Code)
		_, found := logger.FindEntry("failed to write response body")
		require.True(t, found)
	})

	t.Run("nil data", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondCodeAndJSON(resp, http.StatusNoContent, nil, nil)
		require.Equal(t, http.StatusNoContent, resp.Code)
		require.Empty(t, resp.Body.String())
	})
}

func TestRespondText(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondText(resp, http.StatusOK, `{"value":"raw"}`, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, ContentTypeTextPlain, resp.Header().Get("Content-Type"))
	require.Equal(t, `{"value":"raw"}`, resp.Body.String())
}

func TestRespondError(t *testing.T) {
	MustInitAndRegisterMetrics("")
	defer UnregisterMetrics()

	resp := httptest.NewRecorder()
	logger := logtest.NewRecorder()
	respErr := NewError(testDomain, "downstreamCallFailed", "Downstream call failed.").AddContext("status", 500)
	RespondError(resp, http.StatusBadGateway, respErr, logger)

	gotErr := testutil.RequireErrorInRecorder(t, resp, http.StatusBadGateway, testDomain, "downstreamCallFailed")
	require.Equal(t, "Downstream call failed.", gotErr.Message)
	require.EqualValues(t, 500, gotErr.Context["status"])

	entry, found := logger.FindEntry("responding with error")
	require.True(t, found)
	field, found := entry.FindField("error_code")
	require.True(t, found)
	require.Equal(t, "downstreamCallFailed", string(field.Bytes))

	counter := responseErrors.Load().With(prometheus.Labels{
		metricsLabelResponseErrorDomain: testDomain,
		metricsLabelResponseErrorCode:   "downstreamCallFailed",
	})
	testutil.RequireSamplesCountInCounter(t, counter, 1)
}

func TestRespondMalformedRequestOrInternalError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondMalformedRequestOrInternalError(resp, testDomain,
		&MalformedRequestError{http.StatusBadRequest, "Request body must not be empty."}, nil)
	gotErr := testutil.RequireErrorInRecorder(t, resp, http.StatusBadRequest, testDomain, "badRequest")
	require.Equal(t, "Request body must not be empty.", gotErr.Message)

	resp = httptest.NewRecorder()
	RespondMalformedRequestOrInternalError(resp, testDomain, errors.New("boom"), nil)
	gotErr = testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, testDomain, ErrCodeInternal)
	require.Equal(t, ErrMessageInternal, gotErr.Message)
}

func TestHTTPCode2ErrorCode(t *testing.T) {
	require.Equal(t, "badRequest", httpCode2ErrorCode(http.StatusBadRequest))
	require.Equal(t, "requestEntityTooLarge", httpCode2ErrorCode(http.StatusRequestEntityTooLarge))
	require.Equal(t, "internalError", httpCode2ErrorCode(http.StatusInternalServerError))
	require.Equal(t, "badGateway", httpCode2ErrorCode(http.StatusBadGateway))
	require.Equal(t, "multiStatus", httpCode2ErrorCode(http.StatusMultiStatus))
}

func TestError_Error(t *testing.T) {
	require.Equal(t, "DocGate: notFound: Not found.", NewError("DocGate", ErrCodeNotFound, ErrMessageNotFound).Error())
	require.Equal(t, "DocGate: badGateway", NewErrorForStatus("DocGate", http.StatusBadGateway, "").Error())
}
