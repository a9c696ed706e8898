/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/acronis/go-docgate/log"
)

// MIME media types.
const (
	ContentTypeAppJSON   = "application/json"
	ContentTypeTextPlain = "text/plain; charset=utf-8"
)

// marshalJSON keeps "<", ">" and "&" as is and drops the trailing newline of json.Encoder.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func writeBody(rw http.ResponseWriter, body []byte, logger log.FieldLogger) {
	if _, err := rw.Write(body); err != nil && logger != nil {
		logger.Error("failed to write response body", log.Error(err))
	}
}

// RespondJSON responds 200 with respData encoded as JSON.
func RespondJSON(rw http.ResponseWriter, respData interface{}, logger log.FieldLogger) {
	RespondCodeAndJSON(rw, http.StatusOK, respData, logger)
}

// RespondCodeAndJSON responds statusCode with respData encoded as JSON.
// Content-Type is set to "application/json" unless the handler has already set it.
// Nil respData means an empty body. If encoding fails, the response is 500 without a body.
func RespondCodeAndJSON(rw http.ResponseWriter, statusCode int, respData interface{}, logger log.FieldLogger) {
	if respData == nil {
		rw.WriteHeader(statusCode)
		return
	}
	body, err := marshalJSON(respData)
	if err != nil {
		if logger != nil {
			logger.Error("failed to marshal response body to JSON", log.Error(err))
		}
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	if rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", ContentTypeAppJSON)
	}
	rw.WriteHeader(statusCode)
	writeBody(rw, body, logger)
}

// RespondText responds statusCode with body as plain text.
// It's used for passing downstream responses through without re-encoding.
func RespondText(rw http.ResponseWriter, statusCode int, body string, logger log.FieldLogger) {
	rw.Header().Set("Content-Type", ContentTypeTextPlain)
	rw.WriteHeader(statusCode)
	writeBody(rw, []byte(body), logger)
}

// ErrorResponseData is the body of error responses: {"error": {...}}.
type ErrorResponseData struct {
	Err *Error `json:"error"`
}

func (e *ErrorResponseData) Error() string {
	return "error response: " + e.Err.Error()
}

// RespondError responds httpStatusCode with {"error": err}.
// The error is logged and counted in the response errors metric.
func RespondError(rw http.ResponseWriter, httpStatusCode int, err *Error, logger log.FieldLogger) {
	if logger != nil {
		logger.Error("responding with error", errorLogFields(err)...)
	}
	countResponseError(err)
	RespondCodeAndJSON(rw, httpStatusCode, ErrorResponseData{err}, logger)
}

func errorLogFields(err *Error) []log.Field {
	fields := []log.Field{log.String("error_code", err.Code), log.String("error_message", err.Message)}
	if len(err.Context) == 0 {
		return fields
	}
	lines := make([]string, 0, len(err.Context))
	for k, v := range err.Context {
		lines = append(lines, fmt.Sprintf("%s: %v", k, v))
	}
	sort.Strings(lines)
	return append(fields, log.Strings("error_context", lines))
}

// RespondInternalError responds 500 with the internalError code.
func RespondInternalError(rw http.ResponseWriter, domain string, logger log.FieldLogger) {
	RespondError(rw, http.StatusInternalServerError, NewInternalError(domain), logger)
}

// RespondMalformedRequestError responds with the status and message of reqErr.
func RespondMalformedRequestError(rw http.ResponseWriter, domain string, reqErr *MalformedRequestError, logger log.FieldLogger) {
	RespondError(rw, reqErr.HTTPStatusCode, NewErrorForStatus(domain, reqErr.HTTPStatusCode, reqErr.Message), logger)
}

// RespondMalformedRequestOrInternalError responds 4xx if err is (or wraps) *MalformedRequestError and 500 otherwise.
// It's called with errors returned by DecodeRequestJSON.
func RespondMalformedRequestOrInternalError(rw http.ResponseWriter, domain string, err error, logger log.FieldLogger) {
	var reqErr *MalformedRequestError
	if !errors.As(err, &reqErr) {
		RespondInternalError(rw, domain, logger)
		return
	}
	RespondMalformedRequestError(rw, domain, reqErr, logger)
}
