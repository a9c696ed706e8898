/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// rewindFunc restores the request body before the next attempt.
type rewindFunc func(r *http.Request) error

func noopRewind(*http.Request) error { return nil }

// makeRequestBodyRewindable prepares the request body to be sent several times.
// Sources are tried in order: GetBody, io.Seeker, in-memory copy.
// Submitted documents are small, so the copy is acceptable.
func makeRequestBodyRewindable(req *http.Request) (rewindFunc, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return noopRewind, nil
	}

	if getBody := req.GetBody; getBody != nil {
		return func(r *http.Request) error {
			body, err := getBody()
			if err != nil {
				return fmt.Errorf("get request body: %w", err)
			}
			r.Body = body
			return nil
		}, nil
	}

	if seeker, ok := req.Body.(io.ReadSeeker); ok {
		offset, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("seek request body before doing first request: %w", err)
		}
		req.Body = io.NopCloser(req.Body)
		return func(*http.Request) error {
			if _, seekErr := seeker.Seek(offset, io.SeekStart); seekErr != nil {
				return fmt.Errorf("seek request body to offset %d: %w", offset, seekErr)
			}
			return nil
		}, nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read all request body before doing first request: %w", err)
	}
	return func(r *http.Request) error {
		r.Body = io.NopCloser(bytes.NewReader(data))
		return nil
	}, nil
}

// drainResponseBody reads the rest of the body and closes it, so the connection may be reused.
func drainResponseBody(resp *http.Response) error {
	_, copyErr := io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()
	switch {
	case copyErr != nil:
		return fmt.Errorf("discard response body: %w", copyErr)
	case closeErr != nil:
		return fmt.Errorf("close response body: %w", closeErr)
	}
	return nil
}
