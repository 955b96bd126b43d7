package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics tracks Telegram sends and extra channel broadcasts.
type NotificationMetrics struct {
	NotificationsTotal *prometheus.CounterVec
	DeliveryDuration   prometheus.Histogram
	BroadcastsTotal    *prometheus.CounterVec
	APIResponsesTotal  *prometheus.CounterVec
}

// NewNotificationMetrics creates the collectors and registers them with
// registry.
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of alert notifications by result",
		}, []string{"result"}), // sent, failed, disabled
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time taken to deliver the alert photo",
			Buckets: durationBuckets,
		}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_broadcasts_total",
			Help: "Total number of extra channel broadcasts by status",
		}, []string{"status"}),
		APIResponsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_api_responses_total",
			Help: "Total number of Telegram Bot API responses by HTTP status code",
		}, []string{"code"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	return m, nil
}

// RecordNotification records one SendAlert outcome.
func (m *NotificationMetrics) RecordNotification(result string, duration time.Duration) {
	m.NotificationsTotal.WithLabelValues(result).Inc()
	if result != ResultDisabled {
		m.DeliveryDuration.Observe(seconds(duration))
	}
}

// RecordBroadcast records one extra channel broadcast.
func (m *NotificationMetrics) RecordBroadcast(status string) {
	m.BroadcastsTotal.WithLabelValues(status).Inc()
}

// RecordAPIResponse counts one Bot API round trip. code is the HTTP status
// or CodeTransportError.
func (m *NotificationMetrics) RecordAPIResponse(code string) {
	m.APIResponsesTotal.WithLabelValues(code).Inc()
}

// Describe implements prometheus.Collector.
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.NotificationsTotal.Describe(ch)
	m.DeliveryDuration.Describe(ch)
	m.BroadcastsTotal.Describe(ch)
	m.APIResponsesTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.NotificationsTotal.Collect(ch)
	m.DeliveryDuration.Collect(ch)
	m.BroadcastsTotal.Collect(ch)
	m.APIResponsesTotal.Collect(ch)
}
