/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "net/http"

// UserAgentUpdateStrategy defines what UserAgentRoundTripper does with a User-Agent the request already has.
type UserAgentUpdateStrategy int

// User-Agent update strategies.
const (
	// UserAgentUpdateStrategySetIfEmpty keeps an existing User-Agent.
	UserAgentUpdateStrategySetIfEmpty UserAgentUpdateStrategy = iota
	// UserAgentUpdateStrategyAppend appends the configured value to an existing User-Agent.
	UserAgentUpdateStrategyAppend
)

// UserAgentRoundTripper puts the configured User-Agent into outgoing requests.
type UserAgentRoundTripper struct {
	Delegate       http.RoundTripper
	UserAgent      string
	UpdateStrategy UserAgentUpdateStrategy
}

// NewUserAgentRoundTripper creates a new UserAgentRoundTripper with UserAgentUpdateStrategySetIfEmpty.
func NewUserAgentRoundTripper(delegate http.RoundTripper, userAgent string) *UserAgentRoundTripper {
	return &UserAgentRoundTripper{Delegate: delegate, UserAgent: userAgent}
}

func (rt *UserAgentRoundTripper) userAgentFor(current string) (string, bool) {
	if current == "" {
		return rt.UserAgent, true
	}
	if rt.UpdateStrategy == UserAgentUpdateStrategyAppend {
		return current + " " + rt.UserAgent, true
	}
	return current, false
}

// RoundTrip implements http.RoundTripper. The request is cloned before modification.
func (rt *UserAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if userAgent, changed := rt.userAgentFor(req.Header.Get("User-Agent")); changed {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return rt.Delegate.RoundTrip(req)
}
