package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "speakerhub_http_requests_total", Help: "HTTP requests by method, route and status"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "speakerhub_http_request_duration_seconds", Help: "HTTP request latency", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	ChatConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "speakerhub_chat_connections", Help: "Open chat websocket connections"},
	)
	ChatMessages = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "speakerhub_chat_messages_total", Help: "Chat messages persisted and broadcast"},
	)
	ChatFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "speakerhub_chat_failures_total", Help: "Chat messages that could not be persisted"},
	)
	RemindersDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "speakerhub_reminders_dispatched_total", Help: "Reminder emails handed to the queue"},
		[]string{"type"},
	)
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "speakerhub_emails_sent_total", Help: "Emails delivered to the provider"},
	)
	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "speakerhub_emails_failed_total", Help: "Email send attempts that failed"},
	)
	EmailsDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "speakerhub_emails_dlq_total", Help: "Email jobs moved to the dead-letter queue"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal, HTTPRequestDuration,
			ChatConnections, ChatMessages, ChatFailures,
			RemindersDispatched,
			EmailsSent, EmailsFailed, EmailsDLQ,
		)
	})
}
