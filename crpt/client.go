/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package crpt

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/acronis/go-docgate/httpclient"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/windowlimit"
)

// RequestTypeCreateDocument is used as a request type in outbound HTTP logs and metrics.
const RequestTypeCreateDocument = "crpt_create_document"

// ClientOpts represents options for creating Client.
type ClientOpts struct {
	Logger log.FieldLogger

	// Submitter replaces the default HTTPSubmitter (which is built from Config.Endpoint and Config.HTTPClient).
	Submitter Submitter

	// UserAgent is sent in the User-Agent header of outbound requests.
	UserAgent string

	// Transport is the innermost transport of the HTTP client. http.DefaultTransport is used if it's nil.
	Transport http.RoundTripper

	// HTTPClientMetrics collects outbound request metrics.
	HTTPClientMetrics httpclient.MetricsCollector

	// LimiterMetrics collects admission metrics.
	LimiterMetrics windowlimit.MetricsCollector
}

// Client submits documents to the CRPT API not more often than the configured rate limit allows.
// It's safe for concurrent use.
type Client struct {
	limiter   *windowlimit.Limiter
	submitter Submitter
	logger    log.FieldLogger

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewClient creates a new Client. The limiter's window scheduler starts immediately,
// so Shutdown must be called when the client is not needed anymore.
func NewClient(cfg *Config, opts ClientOpts) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	limiterOpts := []windowlimit.Option{windowlimit.WithLogger(logger)}
	if opts.LimiterMetrics != nil {
		limiterOpts = append(limiterOpts, windowlimit.WithMetricsCollector(opts.LimiterMetrics))
	}
	limiter, err := windowlimit.New(cfg.RateLimit, limiterOpts...)
	if err != nil {
		return nil, err
	}

	submitter := opts.Submitter
	if submitter == nil {
		httpClientCfg := cfg.HTTPClient
		if httpClientCfg == nil {
			httpClientCfg = httpclient.NewDefaultConfig()
		}
		var httpClient *http.Client
		httpClient, err = httpclient.NewWithOpts(httpClientCfg, httpclient.Opts{
			UserAgent:   opts.UserAgent,
			RequestType: RequestTypeCreateDocument,
			Delegate:    opts.Transport,
			Logger:      logger,
			Collector:   opts.HTTPClientMetrics,
			Gate:        limiter,
		})
		if err != nil {
			limiter.Shutdown()
			return nil, fmt.Errorf("create http client: %w", err)
		}
		submitter = NewHTTPSubmitter(cfg.Endpoint, httpClient)
	}

	return &Client{limiter: limiter, submitter: submitter, logger: logger, shutdownCh: make(chan struct{})}, nil
}

// CreateDocument waits for admission and then submits the document.
// It returns the raw response body of the CRPT API.
//
// If ctx is done while waiting, *windowlimit.InterruptedWaitError is returned and nothing is sent.
// A non-2xx response results in *UnexpectedStatusError.
func (c *Client) CreateDocument(ctx context.Context, doc *Document, signature string) (string, error) {
	if signature == "" {
		return "", ErrEmptySignature
	}
	select {
	case <-c.shutdownCh:
		return "", ErrClientShutdown
	default:
	}

	if err := c.limiter.AcquireContext(ctx); err != nil {
		return "", err
	}
	return c.submitter.Submit(ctx, doc, signature)
}

// Limiter returns the admission limiter used by the client.
func (c *Client) Limiter() *windowlimit.Limiter {
	return c.limiter
}

// Shutdown stops the limiter's window scheduler. It's safe to call it multiple times.
// Calls that are already waiting for admission are not woken up, so use a cancellable context
// in CreateDocument when the client may be shut down concurrently.
func (c *Client) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.shutdownCh)
		c.limiter.Shutdown()
		c.logger.Info("crpt client is shut down")
	})
}
