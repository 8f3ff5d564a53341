// Package metrics exposes the bot's prometheus counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Notice outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeQueued  = "queued"
	OutcomeFailed  = "failed"
)

var (
	once sync.Once

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spabot",
			Name:      "webhook_events_total",
			Help:      "Webhook events processed by type and result.",
		},
		[]string{"type", "result"},
	)

	notices = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spabot",
			Name:      "notices_total",
			Help:      "Staff notices by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	nlpCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spabot",
			Name:      "nlp_calls_total",
			Help:      "NLP gateway calls by outcome.",
		},
		[]string{"outcome"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spabot",
			Name:      "booking_conflicts_total",
			Help:      "Booking writes rejected because the staff member was busy.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(webhookEvents, notices, nlpCalls, bookingConflicts)
	})
}

func IncWebhookEvent(eventType, result string) {
	webhookEvents.WithLabelValues(eventType, result).Inc()
}

func IncNotice(kind, outcome string) {
	notices.WithLabelValues(kind, outcome).Inc()
}

func IncNLPCall(outcome string) {
	nlpCalls.WithLabelValues(outcome).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}
