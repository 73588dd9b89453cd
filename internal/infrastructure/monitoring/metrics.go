package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics of the dispatch service.
type Metrics struct {
	LoginAttempts       *prometheus.CounterVec
	LoginBlocksActive   *prometheus.CounterVec
	RateLimitRejections prometheus.Counter
	GuardStoreErrors    prometheus.Counter
	BookingTransitions  *prometheus.CounterVec
	SequenceAllocations *prometheus.CounterVec
	TransitionLatency   *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the Prometheus metrics and registers them on reg.
// Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_login_attempts_total",
				Help: "Total number of login attempts.",
			},
			[]string{"result"},
		),
		LoginBlocksActive: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_login_blocks_installed_total",
				Help: "Total number of login blocks installed.",
			},
			[]string{"trigger"},
		),
		RateLimitRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_rate_limit_rejections_total",
				Help: "Total number of login requests rejected by an active block.",
			},
		),
		GuardStoreErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_guard_store_errors_total",
				Help: "Total number of counter store failures on the login guard path.",
			},
		),
		BookingTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_booking_transitions_total",
				Help: "Total number of booking status transitions.",
			},
			[]string{"status", "result"},
		),
		SequenceAllocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_sequence_allocations_total",
				Help: "Total number of booking number allocations.",
			},
			[]string{"result"},
		),
		TransitionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_booking_transition_latency_seconds",
				Help:    "Latency of booking status transitions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordLoginAttempt records a login attempt outcome: success, failure or blocked.
func (m *Metrics) RecordLoginAttempt(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// RecordBlockInstalled records a new block. trigger is "threshold" for blocks
// installed when the attempt counter crossed the limit.
func (m *Metrics) RecordBlockInstalled(trigger string) {
	m.LoginBlocksActive.WithLabelValues(trigger).Inc()
}

// RecordTransition records metrics for a booking status transition.
func (m *Metrics) RecordTransition(status, result string, duration time.Duration) {
	m.BookingTransitions.WithLabelValues(status, result).Inc()
	m.TransitionLatency.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordAllocation records a booking number allocation outcome.
func (m *Metrics) RecordAllocation(result string) {
	m.SequenceAllocations.WithLabelValues(result).Inc()
}
