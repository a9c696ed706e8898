/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
)

type mockRequestIDNextHandler struct {
	requestID         string
	internalRequestID string
}

func (h *mockRequestIDNextHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.requestID = GetRequestIDFromContext(r.Context())
	h.internalRequestID = GetInternalRequestIDFromContext(r.Context())
}

func TestRequestID(t *testing.T) {
	t.Run("generate new ids", func(t *testing.T) {
		next := &mockRequestIDNextHandler{}
		resp := httptest.NewRecorder()
		RequestID()(next).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := xid.FromString(next.requestID)
		require.NoError(t, err)
		_, err = xid.FromString(next.internalRequestID)
		require.NoError(t, err)
		require.NotEqual(t, next.requestID, next.internalRequestID)
		require.Equal(t, next.requestID, resp.Header().Get(headerRequestID))
		require.Equal(t, next.internalRequestID, resp.Header().Get(headerInternalRequestID))
	})

	t.Run("use id from header", func(t *testing.T) {
		next := &mockRequestIDNextHandler{}
		resp := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(headerRequestID, "external-id")
		RequestIDWithOpts(RequestIDOpts{GenerateInternalID: func() string { return "int-id" }})(next).ServeHTTP(resp, req)

		require.Equal(t, "external-id", next.requestID)
		require.Equal(t, "int-id", next.internalRequestID)
		require.Equal(t, "external-id", resp.Header().Get(headerRequestID))
	})
}

func TestRequestID_InvalidHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "too long", value: strings.Repeat("a", MaxRequestIDLength+1)},
		{name: "non-printable", value: "id\x01"},
		{name: "space inside", value: "my id"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			next := &mockRequestIDNextHandler{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(headerRequestID, tt.value)
			RequestIDWithOpts(RequestIDOpts{GenerateID: func() string { return "generated" }})(next).
				ServeHTTP(httptest.NewRecorder(), req)
			require.Equal(t, "generated", next.requestID)
		})
	}
}
