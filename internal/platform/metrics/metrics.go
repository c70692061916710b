package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Components accept
// a nil *Metrics and skip recording, so unit tests never touch the default
// registry.
type Metrics struct {
	SubscriptionsCreated   prometheus.Counter
	SubscriptionsConfirmed prometheus.Counter
	EmailsSent             prometheus.Counter
	EmailsFailed           prometheus.Counter
	RequestDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubscriptionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "missive_subscriptions_created_total",
			Help: "Total number of pending subscriptions committed to the store",
		}),
		SubscriptionsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "missive_subscriptions_confirmed_total",
			Help: "Total number of subscriptions confirmed via token redemption",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "missive_confirmation_emails_sent_total",
			Help: "Total number of confirmation emails accepted by the provider",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "missive_confirmation_emails_failed_total",
			Help: "Total number of confirmation email sends that failed",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "missive_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// RecordSubscriptionCreated increments the created counter by 1.
func (m *Metrics) RecordSubscriptionCreated() {
	if m == nil {
		return
	}
	m.SubscriptionsCreated.Inc()
}

// RecordSubscriptionConfirmed increments the confirmed counter by 1.
func (m *Metrics) RecordSubscriptionConfirmed() {
	if m == nil {
		return
	}
	m.SubscriptionsConfirmed.Inc()
}

// RecordEmailSent increments the sent counter by 1.
func (m *Metrics) RecordEmailSent() {
	if m == nil {
		return
	}
	m.EmailsSent.Inc()
}

// RecordEmailFailed increments the failed counter by 1.
func (m *Metrics) RecordEmailFailed() {
	if m == nil {
		return
	}
	m.EmailsFailed.Inc()
}

// ObserveRequest records one request's latency.
func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
