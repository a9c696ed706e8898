/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"

	"github.com/rs/xid"

	"github.com/acronis/go-docgate/httpserver/middleware"
)

// RequestIDHeader is the name of HTTP header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// RequestIDRoundTripper sets X-Request-ID header in outgoing requests.
// The id is taken from the context (see middleware.RequestID); a new one is generated if the context has none.
type RequestIDRoundTripper struct {
	Delegate          http.RoundTripper
	RequestIDProvider func(ctx context.Context) string
}

// NewRequestIDRoundTripper creates an HTTP transport with X-Request-ID header support.
func NewRequestIDRoundTripper(delegate http.RoundTripper) *RequestIDRoundTripper {
	return &RequestIDRoundTripper{Delegate: delegate, RequestIDProvider: middleware.GetRequestIDFromContext}
}

// RoundTrip adds X-Request-ID header to the request if it's missing.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(RequestIDHeader) != "" {
		return rt.Delegate.RoundTrip(r)
	}
	var requestID string
	if rt.RequestIDProvider != nil {
		requestID = rt.RequestIDProvider(r.Context())
	}
	if requestID == "" {
		requestID = xid.New().String()
	}
	r = r.Clone(r.Context()) // Per RoundTripper contract.
	r.Header.Set(RequestIDHeader, requestID)
	return rt.Delegate.RoundTrip(r)
}
