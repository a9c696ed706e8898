/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/vasayxtx/go-glob"
)

// WrapResponseWriter is a proxy around http.ResponseWriter that allows to get the status code and the size of the body.
type WrapResponseWriter = chimw.WrapResponseWriter

// WrapResponseWriterIfNeeded wraps an http.ResponseWriter (if it is not already wrapped).
func WrapResponseWriterIfNeeded(rw http.ResponseWriter, protoMajor int) WrapResponseWriter {
	if wrw, ok := rw.(WrapResponseWriter); ok {
		return wrw
	}
	return chimw.NewWrapResponseWriter(rw, protoMajor)
}

// responseStatus returns 200 if nothing has been written explicitly.
func responseStatus(wrw WrapResponseWriter) int {
	if status := wrw.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

// endpointMatcher reports whether a URL path matches any of the glob patterns ("/debug/*").
type endpointMatcher []func(string) bool

func newEndpointMatcher(patterns []string) endpointMatcher {
	m := make(endpointMatcher, 0, len(patterns))
	for _, pattern := range patterns {
		m = append(m, glob.Compile(pattern))
	}
	return m
}

func (m endpointMatcher) match(urlPath string) bool {
	for _, matchFn := range m {
		if matchFn(urlPath) {
			return true
		}
	}
	return false
}
