/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestJSON(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	tests := []struct {
		name           string
		reqContentType string
		reqBody        string
		reqMaxBodySize uint64
		strict         bool
		wantErr        error
		want           person
	}{
		{
			name:    "badly-formed",
			reqBody: "text",
			wantErr: &MalformedRequestError{http.StatusBadRequest, "Request body contains badly-formed JSON (at position 2)."},
		},
		{
			name:           "unsupported content type",
			reqContentType: "text/html",
			reqBody:        "text",
			wantErr:        &MalformedRequestError{http.StatusUnsupportedMediaType, `Content-Type "text/html" is not supported.`},
		},
		{
			name:           "empty",
			reqContentType: ContentTypeAppJSON,
			wantErr:        &MalformedRequestError{http.StatusBadRequest, "Request body must not be empty."},
		},
		{
			name:           "unexpected EOF",
			reqContentType: ContentTypeAppJSON,
			reqBody:        `{"name": "Bob"`,
			wantErr:        &MalformedRequestError{http.StatusBadRequest, "Request body contains badly-formed JSON."},
		},
		{
			name:           "several objects",
			reqContentType: ContentTypeAppJSON,
			reqBody:        `{"name": "Bob"}{"name": "Alice"}`,
			wantErr:        &MalformedRequestError{http.StatusBadRequest, "Request body must only contain a single JSON object."},
		},
		{
			name:           "too large",
			reqContentType: ContentTypeAppJSON,
			reqBody:        `{"name": "Bob", "age": 12}`,
			reqMaxBodySize: 10,
			wantErr:        &MalformedRequestError{http.StatusRequestEntityTooLarge, "Request body must not be larger than 10B."},
		},
		{
			name:           "unknown field, strict",
			reqContentType: ContentTypeAppJSON,
			reqBody:        `{"name": "Bob", "height": 180}`,
			strict:         true,
			wantErr:        &MalformedRequestError{http.StatusBadRequest, `Request body contains unknown field "height".`},
		},
		{
			name:    "unknown field, not strict",
			reqBody: `{"name": "Bob", "height": 180}`,
			want:    person{Name: "Bob"},
		},
		{
			name:           "ok",
			reqContentType: ContentTypeAppJSON + "; charset=utf-8",
			reqBody:        `{"name": "Bob", "age": 12}`,
			want:           person{Name: "Bob", Age: 12},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.reqBody))
			if tt.reqContentType != "" {
				req.Header.Set("Content-Type", tt.reqContentType)
			}
			if tt.reqMaxBodySize > 0 {
				SetRequestMaxBodySize(httptest.NewRecorder(), req, tt.reqMaxBodySize)
			}
			var got person
			var err error
			if tt.strict {
				err = DecodeRequestJSONWithOpts(req, &got, DecodeOpts{DisallowUnknownFields: true})
			} else {
				err = DecodeRequestJSON(req, &got)
			}
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
