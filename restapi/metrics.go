/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

const (
	metricsSubsystem = "restapi"

	metricsLabelResponseErrorDomain = "domain"
	metricsLabelResponseErrorCode   = "code"
)

// responseErrors is nil until MustInitAndRegisterMetrics is called.
var responseErrors atomic.Pointer[prometheus.CounterVec]

// MustInitAndRegisterMetrics creates the counter of error responses and registers it in the default registry.
// It panics if the counter is already registered.
func MustInitAndRegisterMetrics(namespace string) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: metricsSubsystem,
		Name:      "response_errors",
		Help:      "The total number of REST API error responses by domain and code.",
	}, []string{metricsLabelResponseErrorDomain, metricsLabelResponseErrorCode})
	prometheus.MustRegister(vec)
	responseErrors.Store(vec)
}

// UnregisterMetrics unregisters the counter of error responses. Errors are not counted afterwards.
func UnregisterMetrics() {
	if vec := responseErrors.Swap(nil); vec != nil {
		prometheus.Unregister(vec)
	}
}

func countResponseError(err *Error) {
	if vec := responseErrors.Load(); vec != nil {
		vec.With(prometheus.Labels{
			metricsLabelResponseErrorDomain: err.Domain,
			metricsLabelResponseErrorCode:   err.Code,
		}).Inc()
	}
}
