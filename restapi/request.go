/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"code.cloudfoundry.org/bytefmt"
)

// MalformedRequestError is returned by the decoding functions when the request is invalid.
// HTTPStatusCode is the status the client should get (400, 413 or 415).
type MalformedRequestError struct {
	HTTPStatusCode int
	Message        string
}

func (e *MalformedRequestError) Error() string {
	return e.Message
}

func newBadRequestError(format string, args ...interface{}) *MalformedRequestError {
	return &MalformedRequestError{http.StatusBadRequest, fmt.Sprintf(format, args...)}
}

// NewTooLargeMalformedRequestError creates a 413 MalformedRequestError.
func NewTooLargeMalformedRequestError(maxSizeBytes uint64) *MalformedRequestError {
	return &MalformedRequestError{
		http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Request body must not be larger than %s.", bytefmt.ByteSize(maxSizeBytes)),
	}
}

// SetRequestMaxBodySize limits how many bytes of the request body may be read.
// Reading past the limit makes DecodeRequestJSON return a 413 MalformedRequestError.
func SetRequestMaxBodySize(w http.ResponseWriter, r *http.Request, maxSizeBytes uint64) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxSizeBytes))
}

// DecodeOpts tunes DecodeRequestJSONWithOpts.
type DecodeOpts struct {
	// DisallowUnknownFields rejects objects with fields dst has no place for.
	DisallowUnknownFields bool
}

// DecodeRequestJSON decodes the request body as a single JSON value.
// Content-Type, if set, must be application/json.
func DecodeRequestJSON(r *http.Request, dst interface{}) error {
	return DecodeRequestJSONWithOpts(r, dst, DecodeOpts{})
}

// DecodeRequestJSONWithOpts is DecodeRequestJSON with options.
func DecodeRequestJSONWithOpts(r *http.Request, dst interface{}, opts DecodeOpts) error {
	if err := checkJSONContentType(r.Header.Get("Content-Type")); err != nil {
		return err
	}
	decoder := json.NewDecoder(r.Body)
	if opts.DisallowUnknownFields {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		return convertDecodeError(err)
	}
	if decoder.More() {
		return newBadRequestError("Request body must only contain a single JSON object.")
	}
	return nil
}

func checkJSONContentType(headerValue string) error {
	if headerValue == "" {
		return nil
	}
	contentType, _, err := mime.ParseMediaType(headerValue)
	if err != nil {
		return &MalformedRequestError{
			http.StatusUnsupportedMediaType, fmt.Sprintf("failed to parse Content-Type header for request: %s", err)}
	}
	if contentType != ContentTypeAppJSON {
		return &MalformedRequestError{
			http.StatusUnsupportedMediaType, fmt.Sprintf("Content-Type %q is not supported.", contentType)}
	}
	return nil
}

// convertDecodeError turns encoding/json errors into client-facing MalformedRequestError.
// Other errors (e.g. network ones) are returned as is.
func convertDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return newBadRequestError("Request body must not be empty.")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return newBadRequestError("Request body contains badly-formed JSON.")
	case errors.As(err, &syntaxErr):
		return newBadRequestError("Request body contains badly-formed JSON (at position %d).", syntaxErr.Offset)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return newBadRequestError("Request body contains an invalid value for the %q field (at position %d).",
			typeErr.Field, typeErr.Offset)
	case errors.As(err, &typeErr):
		return newBadRequestError("Request body contains an invalid value of type %q for the field of type %s.",
			typeErr.Value, typeErr.Type)
	case errors.As(err, &maxBytesErr):
		return NewTooLargeMalformedRequestError(uint64(maxBytesErr.Limit))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return newBadRequestError("Request body contains unknown field %s.", strings.TrimPrefix(err.Error(), "json: unknown field "))
	}
	return err
}
