package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCycles tracks completed monitor poll cycles by alert kind and outcome
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "og88_poll_cycles_total",
			Help: "Total number of monitor poll cycles by kind and status",
		},
		[]string{"kind", "status"},
	)

	// TransfersObserved tracks transfers seen by the monitors and how each was classified
	TransfersObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "og88_transfers_observed_total",
			Help: "Total transfers observed by kind and classification",
		},
		[]string{"kind", "status"},
	)

	// AlertsDispatched tracks alerts successfully delivered to subscribers
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "og88_alerts_dispatched_total",
			Help: "Total alert messages delivered by kind",
		},
		[]string{"kind"},
	)

	// DispatchFailures tracks failed alert deliveries by reason
	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "og88_dispatch_failures_total",
			Help: "Total failed alert deliveries by kind and reason",
		},
		[]string{"kind", "reason"},
	)

	// Subscribers tracks the current subscriber count per alert kind
	Subscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "og88_subscribers",
			Help: "Current number of subscribed chats per alert kind",
		},
		[]string{"kind"},
	)

	// APIRequests tracks upstream API requests by endpoint and status
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "og88_api_requests_total",
			Help: "Total upstream API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// APIRequestDuration tracks upstream API request latency
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "og88_api_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// HealthChecks tracks health endpoint hits
	HealthChecks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "og88_health_checks_total",
			Help: "Total health check requests",
		},
	)
)

// RecordPollCycle records a completed poll cycle
func RecordPollCycle(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PollCycles.WithLabelValues(kind, status).Inc()
}

// RecordTransfer records a transfer observation with its classification
func RecordTransfer(kind, status string) {
	TransfersObserved.WithLabelValues(kind, status).Inc()
}

// RecordDispatch records the outcome of one alert delivery attempt
func RecordDispatch(kind string, err error) {
	if err == nil {
		AlertsDispatched.WithLabelValues(kind).Inc()
		return
	}
	DispatchFailures.WithLabelValues(kind, "send_error").Inc()
}

// RecordForbidden records a delivery rejected by the chat (bot blocked or kicked)
func RecordForbidden(kind string) {
	DispatchFailures.WithLabelValues(kind, "forbidden").Inc()
}

// SetSubscribers updates the subscriber gauge for an alert kind
func SetSubscribers(kind string, count int) {
	Subscribers.WithLabelValues(kind).Set(float64(count))
}

// RecordAPIRequest records an upstream API request
func RecordAPIRequest(endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordHealthCheck records a health endpoint hit
func RecordHealthCheck() {
	HealthChecks.Inc()
}
