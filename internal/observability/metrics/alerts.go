package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AlertMetrics counts stored alerts and failed pipeline steps.
type AlertMetrics struct {
	StoredTotal       prometheus.Counter
	StepFailuresTotal *prometheus.CounterVec
	StoreDuration     prometheus.Histogram
}

// NewAlertMetrics creates the collectors and registers them with registry.
func NewAlertMetrics(registry *prometheus.Registry) (*AlertMetrics, error) {
	m := &AlertMetrics{
		StoredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alerts_stored_total",
			Help: "Total number of StoreAlert runs",
		}),
		StepFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_step_failures_total",
			Help: "Total number of failed alert pipeline steps by step",
		}, []string{"step"}),
		StoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "store_alert_duration_seconds",
			Help:    "Time taken by a StoreAlert run, all steps included",
			Buckets: durationBuckets,
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register alert metrics: %w", err)
	}
	return m, nil
}

// RecordStore records one StoreAlert run and the steps that failed in it.
func (m *AlertMetrics) RecordStore(duration time.Duration, failedSteps []string) {
	m.StoredTotal.Inc()
	m.StoreDuration.Observe(seconds(duration))
	for _, step := range failedSteps {
		m.StepFailuresTotal.WithLabelValues(step).Inc()
	}
}

// Describe implements prometheus.Collector.
func (m *AlertMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.StoredTotal.Describe(ch)
	m.StepFailuresTotal.Describe(ch)
	m.StoreDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *AlertMetrics) Collect(ch chan<- prometheus.Metric) {
	m.StoredTotal.Collect(ch)
	m.StepFailuresTotal.Collect(ch)
	m.StoreDuration.Collect(ch)
}
