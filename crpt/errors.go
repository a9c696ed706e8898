/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package crpt

import (
	"errors"
	"fmt"
)

// ErrEmptySignature is returned when a document is submitted without a signature.
var ErrEmptySignature = errors.New("signature cannot be empty")

// ErrClientShutdown is returned by Client.CreateDocument after the client is shut down.
var ErrClientShutdown = errors.New("crpt client is shut down")

// ErrResponseTooLarge is returned when a successful response body exceeds the submitter's size limit.
var ErrResponseTooLarge = errors.New("crpt response body is too large")

// UnexpectedStatusError is returned when the CRPT API responds with a non-2xx status code.
type UnexpectedStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string

	// Body is the beginning of the response body (maxErrorBodyExcerptLen bytes at most).
	Body string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected code %d (%s) for %s %s", e.StatusCode, e.Status, e.Method, e.URL)
}
