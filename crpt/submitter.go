/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package crpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultEndpoint is the URL of the CRPT "create document" API.
const DefaultEndpoint = "https://ismp.crpt.ru/api/v3/lk/documents/create"

const (
	contentTypeAppJSON     = "application/json"
	maxErrorBodyExcerptLen = 512
)

// DefaultMaxResponseBodySize is used by HTTPSubmitter when MaxResponseBodySize is not set.
const DefaultMaxResponseBodySize = 10 * 1024 * 1024

// Submitter sends a document with its signature to the CRPT API and returns the response body.
type Submitter interface {
	Submit(ctx context.Context, doc *Document, signature string) (string, error)
}

// SubmitterFunc is an adapter to allow the use of ordinary functions as Submitter.
type SubmitterFunc func(ctx context.Context, doc *Document, signature string) (string, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, doc *Document, signature string) (string, error) {
	return f(ctx, doc, signature)
}

// HTTPSubmitter posts documents as JSON to the configured endpoint.
// The signature is sent as is in the Authorization header.
type HTTPSubmitter struct {
	Endpoint string
	Client   *http.Client

	// MaxResponseBodySize bounds the successful response body. Zero means DefaultMaxResponseBodySize.
	MaxResponseBodySize int64
}

var _ Submitter = (*HTTPSubmitter)(nil)

// NewHTTPSubmitter creates a new HTTPSubmitter. http.DefaultClient is used if client is nil.
func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSubmitter{Endpoint: endpoint, Client: client}
}

// Submit posts the document and returns the response body as text.
// *UnexpectedStatusError is returned if the response status code is not 2xx.
// A 2xx body longer than MaxResponseBodySize fails with ErrResponseTooLarge.
func (s *HTTPSubmitter) Submit(ctx context.Context, doc *Document, signature string) (string, error) {
	reqBody, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeAppJSON)
	req.Header.Set("Authorization", signature)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	maxSize := s.MaxResponseBodySize
	if maxSize <= 0 {
		maxSize = DefaultMaxResponseBodySize
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := respBody
		if len(excerpt) > maxErrorBodyExcerptLen {
			excerpt = excerpt[:maxErrorBodyExcerptLen]
		}
		return "", &UnexpectedStatusError{
			Method:     req.Method,
			URL:        s.Endpoint,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(excerpt),
		}
	}
	if int64(len(respBody)) > maxSize {
		return "", fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxSize)
	}
	return string(respBody), nil
}
