/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient provides http.RoundTripper implementations (logging, metrics, user agent, request id, retries)
// and a constructor that chains them into an *http.Client according to the Config.
package httpclient
