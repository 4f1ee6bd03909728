package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_agent_requests_total",
			Help: "Total number of webhook requests",
		},
		[]string{"endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "directory_agent_request_duration_seconds",
			Help: "Webhook request duration in seconds",
		},
		[]string{"endpoint"},
	)

	// ClassifierCalls outcome: ok, unavailable, malformed
	ClassifierCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_agent_classifier_calls_total",
			Help: "Classifier invocations by outcome",
		},
		[]string{"outcome"},
	)

	EditActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_agent_edit_actions_total",
			Help: "Executed edit actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	EmptyTranscripts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_agent_empty_transcripts_total",
			Help: "Edit requests stopped before classification because the transcript was empty",
		},
	)

	HistoryFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_agent_history_fetch_failures_total",
			Help: "Failed conversation history fetches (request continued with empty history)",
		},
	)
)
