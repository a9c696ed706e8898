/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package windowlimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector represents a collector of metrics for the limiter.
type MetricsCollector interface {
	// IncAdmitted increments the total number of granted permits.
	IncAdmitted()

	// IncInterrupted increments the total number of waits interrupted before a permit was granted.
	IncInterrupted()

	// IncResets increments the total number of window resets and adds the number of permits dropped by the reset.
	IncResets(droppedPermits int)

	// SetWaiting sets the current number of blocked callers.
	SetWaiting(int)

	// ObserveWaitDuration observes how long a caller was blocked before being admitted.
	ObserveWaitDuration(time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// PrometheusMetrics.MustCurryWith must be called further with the same labels if the list is not empty.
	CurriedLabelNames []string

	// WaitDurationBuckets is a list of buckets for the wait duration histogram.
	// prometheus.DefBuckets is used if empty.
	WaitDurationBuckets []float64
}

// PrometheusMetrics represents Prometheus metrics for the limiter.
type PrometheusMetrics struct {
	AdmittedTotal       *prometheus.CounterVec
	InterruptedTotal    *prometheus.CounterVec
	ResetsTotal         *prometheus.CounterVec
	DroppedPermitsTotal *prometheus.CounterVec
	WaitingCallers      *prometheus.GaugeVec
	WaitDuration        prometheus.ObserverVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	newCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: opts.ConstLabels,
		}, opts.CurriedLabelNames)
	}

	waitingCallers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   opts.Namespace,
		Name:        "window_limiter_waiting_callers",
		Help:        "Number of callers blocked until the next window.",
		ConstLabels: opts.ConstLabels,
	}, opts.CurriedLabelNames)

	buckets := opts.WaitDurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	waitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   opts.Namespace,
		Name:        "window_limiter_wait_duration_seconds",
		Help:        "Time a caller was blocked before it was admitted.",
		Buckets:     buckets,
		ConstLabels: opts.ConstLabels,
	}, opts.CurriedLabelNames)

	return &PrometheusMetrics{
		AdmittedTotal:       newCounter("window_limiter_admitted_total", "Number of granted permits."),
		InterruptedTotal:    newCounter("window_limiter_interrupted_total", "Number of waits interrupted before a permit was granted."),
		ResetsTotal:         newCounter("window_limiter_resets_total", "Number of window resets."),
		DroppedPermitsTotal: newCounter("window_limiter_dropped_permits_total", "Number of permits left unused at the end of a window."),
		WaitingCallers:      waitingCallers,
		WaitDuration:        waitDuration,
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		AdmittedTotal:       pm.AdmittedTotal.MustCurryWith(labels),
		InterruptedTotal:    pm.InterruptedTotal.MustCurryWith(labels),
		ResetsTotal:         pm.ResetsTotal.MustCurryWith(labels),
		DroppedPermitsTotal: pm.DroppedPermitsTotal.MustCurryWith(labels),
		WaitingCallers:      pm.WaitingCallers.MustCurryWith(labels),
		WaitDuration:        pm.WaitDuration.MustCurryWith(labels),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.AdmittedTotal,
		pm.InterruptedTotal,
		pm.ResetsTotal,
		pm.DroppedPermitsTotal,
		pm.WaitingCallers,
		pm.WaitDuration,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.AdmittedTotal)
	prometheus.Unregister(pm.InterruptedTotal)
	prometheus.Unregister(pm.ResetsTotal)
	prometheus.Unregister(pm.DroppedPermitsTotal)
	prometheus.Unregister(pm.WaitingCallers)
	prometheus.Unregister(pm.WaitDuration)
}

// IncAdmitted increments the total number of granted permits.
func (pm *PrometheusMetrics) IncAdmitted() {
	pm.AdmittedTotal.With(nil).Inc()
}

// IncInterrupted increments the total number of interrupted waits.
func (pm *PrometheusMetrics) IncInterrupted() {
	pm.InterruptedTotal.With(nil).Inc()
}

// IncResets increments the total number of window resets and dropped permits.
func (pm *PrometheusMetrics) IncResets(droppedPermits int) {
	pm.ResetsTotal.With(nil).Inc()
	pm.DroppedPermitsTotal.With(nil).Add(float64(droppedPermits))
}

// SetWaiting sets the current number of blocked callers.
func (pm *PrometheusMetrics) SetWaiting(n int) {
	pm.WaitingCallers.With(nil).Set(float64(n))
}

// ObserveWaitDuration observes how long a caller was blocked.
func (pm *PrometheusMetrics) ObserveWaitDuration(d time.Duration) {
	pm.WaitDuration.With(nil).Observe(d.Seconds())
}

type disabledMetrics struct{}

func (disabledMetrics) IncAdmitted()                      {}
func (disabledMetrics) IncInterrupted()                   {}
func (disabledMetrics) IncResets(int)                     {}
func (disabledMetrics) SetWaiting(int)                    {}
func (disabledMetrics) ObserveWaitDuration(time.Duration) {}

var disabledMetricsCollector = disabledMetrics{}
