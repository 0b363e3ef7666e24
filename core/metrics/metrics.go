// Package metrics holds the Prometheus collectors shared by the bot core and services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolbot_updates_handled_total",
			Help: "Telegram updates handled, by handler and status",
		},
		[]string{"handler", "status"},
	)

	handlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schoolbot_handler_duration_seconds",
			Help:    "Time spent in update handlers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schoolbot_rate_limited_total",
			Help: "Updates dropped by the per-user rate limit",
		},
	)

	sendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolbot_send_failures_total",
			Help: "Outbound Telegram calls that failed after retries",
		},
		[]string{"kind"},
	)

	leadsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolbot_leads_saved_total",
			Help: "Lead upserts, by status",
		},
		[]string{"status"},
	)

	assistantAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolbot_assistant_answers_total",
			Help: "Answer generator calls, by outcome",
		},
		[]string{"outcome"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolbot_notifications_total",
			Help: "Admin notifications, by sink and status",
		},
		[]string{"sink", "status"},
	)
)

// RecordHandler counts a handled update and observes its duration in seconds.
func RecordHandler(handler, status string, seconds float64) {
	updatesHandled.WithLabelValues(handler, status).Inc()
	handlerDuration.WithLabelValues(handler).Observe(seconds)
}

func RecordRateLimited() {
	rateLimited.Inc()
}

func RecordSendFailure(kind string) {
	sendFailures.WithLabelValues(kind).Inc()
}

func RecordLeadSaved(status string) {
	leadsSaved.WithLabelValues(status).Inc()
}

func RecordAssistantAnswer(outcome string) {
	assistantAnswers.WithLabelValues(outcome).Inc()
}

func RecordNotification(sink, status string) {
	notifications.WithLabelValues(sink, status).Inc()
}
