/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	httpRequestMetricsLabelMethod       = "method"
	httpRequestMetricsLabelRoutePattern = "route_pattern"
	httpRequestMetricsLabelStatusCode   = "status_code"
)

// DefaultHTTPRequestDurationBuckets covers requests that wait for admission up to several rate-limit windows.
var DefaultHTTPRequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// HTTPRequestMetricsCollectorOpts represents options for HTTPRequestMetricsCollector.
type HTTPRequestMetricsCollectorOpts struct {
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels
}

// HTTPRequestMetricsCollector holds Prometheus metrics of served HTTP requests.
type HTTPRequestMetricsCollector struct {
	// Durations is labeled by method, route pattern and response status code.
	Durations *prometheus.HistogramVec
	// InFlight is labeled by method and route pattern.
	// Requests blocked on the admission limiter are counted here.
	InFlight *prometheus.GaugeVec
}

// NewHTTPRequestMetricsCollectorWithOpts creates a new HTTPRequestMetricsCollector.
func NewHTTPRequestMetricsCollectorWithOpts(opts HTTPRequestMetricsCollectorOpts) *HTTPRequestMetricsCollector {
	buckets := opts.DurationBuckets
	if buckets == nil {
		buckets = DefaultHTTPRequestDurationBuckets
	}
	return &HTTPRequestMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "A histogram of the HTTP request durations.",
			Buckets:     buckets,
			ConstLabels: opts.ConstLabels,
		}, []string{httpRequestMetricsLabelMethod, httpRequestMetricsLabelRoutePattern, httpRequestMetricsLabelStatusCode}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Current number of HTTP requests being served.",
			ConstLabels: opts.ConstLabels,
		}, []string{httpRequestMetricsLabelMethod, httpRequestMetricsLabelRoutePattern}),
	}
}

// MustRegister registers the metrics in the default Prometheus registry. It panics on error.
func (c *HTTPRequestMetricsCollector) MustRegister() {
	prometheus.MustRegister(c.Durations, c.InFlight)
}

// Unregister removes the metrics from the default Prometheus registry.
func (c *HTTPRequestMetricsCollector) Unregister() {
	prometheus.Unregister(c.InFlight)
	prometheus.Unregister(c.Durations)
}

// RoutePatternGetterFunc returns the route pattern (e.g. "/api/docgate/v1/documents") of the request.
type RoutePatternGetterFunc func(r *http.Request) string

// HTTPRequestMetricsOpts represents options for HTTPRequestMetricsWithOpts.
type HTTPRequestMetricsOpts struct {
	// ExcludedEndpoints are glob patterns of URL paths that are not measured.
	ExcludedEndpoints []string
}

// HTTPRequestMetrics is a middleware that measures served requests with Prometheus.
func HTTPRequestMetrics(
	collector *HTTPRequestMetricsCollector, getRoutePattern RoutePatternGetterFunc,
) func(next http.Handler) http.Handler {
	return HTTPRequestMetricsWithOpts(collector, getRoutePattern, HTTPRequestMetricsOpts{})
}

// HTTPRequestMetricsWithOpts is HTTPRequestMetrics with options.
func HTTPRequestMetricsWithOpts(
	collector *HTTPRequestMetricsCollector, getRoutePattern RoutePatternGetterFunc, opts HTTPRequestMetricsOpts,
) func(next http.Handler) http.Handler {
	if getRoutePattern == nil {
		panic("function for getting route pattern cannot be nil")
	}
	excluded := newEndpointMatcher(opts.ExcludedEndpoints)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if excluded.match(r.URL.Path) {
				next.ServeHTTP(rw, r)
				return
			}
			measureRequest(collector, getRoutePattern, next, rw, r)
		})
	}
}

func measureRequest(
	collector *HTTPRequestMetricsCollector, getRoutePattern RoutePatternGetterFunc,
	next http.Handler, rw http.ResponseWriter, r *http.Request,
) {
	startTime := GetRequestStartTimeFromContext(r.Context())
	if startTime.IsZero() {
		startTime = time.Now()
		r = r.WithContext(NewContextWithRequestStartTime(r.Context(), startTime))
	}

	inFlight := collector.InFlight.WithLabelValues(r.Method, getRoutePattern(r))
	inFlight.Inc()
	defer inFlight.Dec()

	observe := func(status int) {
		// Chi sub-routers know the full route pattern only after routing, so it's taken again here.
		collector.Durations.WithLabelValues(r.Method, getRoutePattern(r), strconv.Itoa(status)).
			Observe(time.Since(startTime).Seconds())
	}

	wrw := WrapResponseWriterIfNeeded(rw, r.ProtoMajor)
	defer func() {
		if p := recover(); p != nil {
			if p != http.ErrAbortHandler { // nolint: errorlint
				observe(http.StatusInternalServerError)
			}
			panic(p)
		}
		observe(responseStatus(wrw))
	}()

	next.ServeHTTP(wrw, r)
}
