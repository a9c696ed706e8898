/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

// Error is the body of an error response: {"error": {"domain": ..., "code": ..., "message": ..., "context": {...}}}.
type Error struct {
	Domain  string                 `json:"domain"`
	Code    string                 `json:"code"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Codes and messages of the errors the router and middlewares respond with.
// Variables, so a service may rename them.
var (
	ErrCodeInternal         = "internalError"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"

	ErrMessageInternal         = "Internal error."
	ErrMessageNotFound         = "Not found."
	ErrMessageMethodNotAllowed = "Method not allowed."
)

// NewError creates a new Error.
func NewError(domain, code, message string) *Error {
	return &Error{Domain: domain, Code: code, Message: message}
}

// NewInternalError creates an Error for 500 responses.
func NewInternalError(domain string) *Error {
	return NewError(domain, ErrCodeInternal, ErrMessageInternal)
}

// NewErrorForStatus creates an Error whose code is derived from the HTTP status text
// (e.g. 502 gives "badGateway").
func NewErrorForStatus(domain string, httpStatusCode int, message string) *Error {
	return NewError(domain, httpCode2ErrorCode(httpStatusCode), message)
}

// AddContext sets a value in the error context and returns the error itself.
func (e *Error) AddContext(field string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[field] = value
	return e
}

// Error implements the error interface, so *Error may be returned and wrapped like any other error.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Domain, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Domain, e.Code, e.Message)
}

// httpCode2ErrorCode turns the status text into lower camel case ("Request Entity Too Large" -> "requestEntityTooLarge").
func httpCode2ErrorCode(httpCode int) string {
	if httpCode == http.StatusInternalServerError {
		return ErrCodeInternal
	}
	words := strings.FieldsFunc(http.StatusText(httpCode), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	var sb strings.Builder
	for i, w := range words {
		if i == 0 {
			sb.WriteString(strings.ToLower(w))
			continue
		}
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToTitle(runes[0])
		sb.WriteString(string(runes))
	}
	return sb.String()
}
