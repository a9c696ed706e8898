/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/rs/xid"
)

const (
	headerRequestID         = "X-Request-ID"
	headerInternalRequestID = "X-Int-Request-ID"
)

// MaxRequestIDLength is the longest X-Request-ID accepted from a client.
// Longer or non-printable values are replaced with a generated ID since the ID is logged and sent to CRPT.
const MaxRequestIDLength = 128

// RequestIDOpts represents options for RequestIDWithOpts middleware.
type RequestIDOpts struct {
	GenerateID         func() string
	GenerateInternalID func() string
}

func newID() string {
	return xid.New().String()
}

func isValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestID is a middleware that takes the request ID from the X-Request-ID header or generates a new one (xid).
// A second, always generated, internal ID goes to X-Int-Request-ID.
// Both IDs are put into the request context and the response headers.
func RequestID() func(next http.Handler) http.Handler {
	return RequestIDWithOpts(RequestIDOpts{})
}

// RequestIDWithOpts is RequestID with custom ID generators.
func RequestIDWithOpts(opts RequestIDOpts) func(next http.Handler) http.Handler {
	genID, genInternalID := opts.GenerateID, opts.GenerateInternalID
	if genID == nil {
		genID = newID
	}
	if genInternalID == nil {
		genInternalID = newID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(headerRequestID)
			if !isValidRequestID(requestID) {
				requestID = genID()
			}
			internalRequestID := genInternalID()

			rw.Header().Set(headerRequestID, requestID)
			rw.Header().Set(headerInternalRequestID, internalRequestID)

			ctx := NewContextWithInternalRequestID(NewContextWithRequestID(r.Context(), requestID), internalRequestID)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
