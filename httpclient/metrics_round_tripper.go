/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultRequestType is the "type" label value of requests with no type set.
const DefaultRequestType = "unknown"

// RequestStatusError is the "status" label value of requests that got no response.
const RequestStatusError = "error"

// MetricsCollector receives measurements of outgoing requests.
type MetricsCollector interface {
	RequestDuration(requestType, host, status string, duration time.Duration)
}

// DefaultClientRequestDurationBuckets are histogram buckets for outgoing request durations.
var DefaultClientRequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// PrometheusMetricsCollector is a MetricsCollector backed by a Prometheus histogram.
type PrometheusMetricsCollector struct {
	// Durations is labeled by request type, remote host and response status.
	Durations *prometheus.HistogramVec
}

var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)

// NewPrometheusMetricsCollector creates a new PrometheusMetricsCollector.
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	return &PrometheusMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "A histogram of the http client requests durations.",
			Buckets:   DefaultClientRequestDurationBuckets,
		}, []string{"type", "remote_address", "status"}),
	}
}

// MustRegister registers the histogram in the default Prometheus registry.
func (p *PrometheusMetricsCollector) MustRegister() {
	prometheus.MustRegister(p.Durations)
}

// Unregister removes the histogram from the default Prometheus registry.
func (p *PrometheusMetricsCollector) Unregister() {
	prometheus.Unregister(p.Durations)
}

// RequestDuration implements MetricsCollector.
func (p *PrometheusMetricsCollector) RequestDuration(requestType, host, status string, duration time.Duration) {
	p.Durations.WithLabelValues(requestType, host, status).Observe(duration.Seconds())
}

// MetricsRoundTripper measures every request it sends, retry attempts included.
type MetricsRoundTripper struct {
	Delegate    http.RoundTripper
	RequestType string
	Collector   MetricsCollector
}

// NewMetricsRoundTripper creates a new MetricsRoundTripper.
func NewMetricsRoundTripper(delegate http.RoundTripper, requestType string, collector MetricsCollector) *MetricsRoundTripper {
	if requestType == "" {
		requestType = DefaultRequestType
	}
	return &MetricsRoundTripper{Delegate: delegate, RequestType: requestType, Collector: collector}
}

// RoundTrip implements http.RoundTripper.
func (rt *MetricsRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Collector == nil {
		return rt.Delegate.RoundTrip(r)
	}
	startTime := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	status := RequestStatusError
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	rt.Collector.RequestDuration(rt.RequestType, r.URL.Host, status, time.Since(startTime))
	return resp, err
}
