package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fixify"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Count of applied booking status transitions.",
		},
		[]string{"from", "to"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_write_conflicts_total",
			Help:      "Count of booking writes rejected because the stored state changed.",
		},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Count of failed best-effort side effects.",
		},
		[]string{"effect"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of notifications by outcome.",
		},
		[]string{"outcome"},
	)

	kafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Count of consumed Kafka messages by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)

	kafkaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_message_duration_seconds",
			Help:      "Kafka message handling latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

const (
	NotificationQueued    = "queued"
	NotificationDelivered = "delivered"
	NotificationDropped   = "dropped"
	NotificationFailed    = "failed"
	KafkaOutcomeSuccess   = "success"
	KafkaOutcomeError     = "error"
	EffectCompletedJobs   = "increment_completed_jobs"
	EffectNotification    = "notification"
	EffectRatingRecompute = "rating_recompute"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bookingsCreated,
			bookingTransitions,
			bookingConflicts,
			sideEffectFailures,
			notifications,
			kafkaMessages,
			kafkaDuration,
		)
	})
}

func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncBookingTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncSideEffectFailure(effect string) {
	sideEffectFailures.WithLabelValues(effect).Inc()
}

func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}

func ObserveKafkaMessage(topic, outcome string, elapsed time.Duration) {
	kafkaMessages.WithLabelValues(topic, outcome).Inc()
	kafkaDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
}
