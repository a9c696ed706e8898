/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectOne registers c in a throwaway registry and returns its only sample.
func collectOne(t assert.TestingT, c prometheus.Collector) (*dto.Metric, bool) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); !assert.NoError(t, err, "register collector") {
		return nil, false
	}
	families, err := reg.Gather()
	if !assert.NoError(t, err, "gather metrics") {
		return nil, false
	}
	if !assert.Len(t, families, 1) || !assert.Len(t, families[0].GetMetric(), 1) {
		return nil, false
	}
	return families[0].GetMetric()[0], true
}

func assertMetricValue(t assert.TestingT, c prometheus.Collector, want int, value func(m *dto.Metric) float64) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	m, ok := collectOne(t, c)
	return ok && assert.Equal(t, want, int(value(m)))
}

func histogramSamples(m *dto.Metric) float64 {
	return float64(m.GetHistogram().GetSampleCount())
}

func counterValue(m *dto.Metric) float64 { return m.GetCounter().GetValue() }
func gaugeValue(m *dto.Metric) float64   { return m.GetGauge().GetValue() }

// AssertSamplesCountInHistogram checks how many observations hist has.
func AssertSamplesCountInHistogram(t assert.TestingT, hist prometheus.Histogram, wantSamplesCount int) bool {
	return assertMetricValue(t, hist, wantSamplesCount, histogramSamples)
}

// RequireSamplesCountInHistogram is AssertSamplesCountInHistogram that stops the test on failure.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Histogram, wantSamplesCount int) {
	if !assertMetricValue(t, hist, wantSamplesCount, histogramSamples) {
		t.FailNow()
	}
}

// AssertSamplesCountInCounter checks the value of counter.
func AssertSamplesCountInCounter(t assert.TestingT, counter prometheus.Counter, wantCount int) bool {
	return assertMetricValue(t, counter, wantCount, counterValue)
}

// RequireSamplesCountInCounter is AssertSamplesCountInCounter that stops the test on failure.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Counter, wantCount int) {
	if !assertMetricValue(t, counter, wantCount, counterValue) {
		t.FailNow()
	}
}

// AssertSamplesCountInGauge checks the value of gauge.
func AssertSamplesCountInGauge(t assert.TestingT, gauge prometheus.Gauge, wantValue int) bool {
	return assertMetricValue(t, gauge, wantValue, gaugeValue)
}

// RequireSamplesCountInGauge is AssertSamplesCountInGauge that stops the test on failure.
func RequireSamplesCountInGauge(t require.TestingT, gauge prometheus.Gauge, wantValue int) {
	if !assertMetricValue(t, gauge, wantValue, gaugeValue) {
		t.FailNow()
	}
}
