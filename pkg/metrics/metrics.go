// Package metrics holds the Prometheus collectors shared by the engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slotkeeper"

var (
	CalendarCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calendar_call_duration_seconds",
		Help:      "Latency of calendar provider calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	BusySourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "busy_source_failures_total",
		Help:      "Busy-time source queries that failed after retries.",
	}, []string{"source"})

	BusyTimeUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "busy_time_unavailable_total",
		Help:      "Persons treated as fully busy because every source failed.",
	})

	IdentityLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_lookups_total",
		Help:      "Calendar identity lookups by the tier that answered.",
	}, []string{"tier"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_attempt_transitions_total",
		Help:      "Booking attempt state transitions.",
	}, []string{"operation", "state"})

	CompensationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensations_enqueued_total",
		Help:      "Compensating calendar deletes handed to the durable outbox.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by method and status code.",
	}, []string{"method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	HTTPTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_request_timeouts_total",
		Help:      "Requests answered by the timeout middleware.",
	})

	PanicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_recovered_total",
		Help:      "Handler panics recovered by the middleware.",
	})

	KafkaMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kafka_messages_total",
		Help:      "Kafka messages published or consumed.",
	}, []string{"direction", "topic", "result"})

	KafkaDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "kafka_operation_duration_seconds",
		Help:      "Kafka publish and handle latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"direction", "topic"})
)

// ObserveCalendarCall is meant to be deferred: defer ObserveCalendarCall(p, op, time.Now()).
func ObserveCalendarCall(provider, operation string, start time.Time) {
	CalendarCallDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

func ObserveHTTPRequest(method string, status int, start time.Time) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
