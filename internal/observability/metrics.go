package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTransitions counts document-request lifecycle transitions by action.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planhub_request_transitions_total",
		Help: "Total number of document request lifecycle transitions",
	}, []string{"action"})

	// Redemptions counts token redemption attempts by outcome.
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planhub_redemptions_total",
		Help: "Total number of download token redemption attempts by outcome",
	}, []string{"outcome"})

	// TokensIssued counts minted download tokens by trigger.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planhub_tokens_issued_total",
		Help: "Total number of download tokens minted",
	}, []string{"trigger"})

	// NotificationFailures counts best-effort notification dispatch failures.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planhub_notification_failures_total",
		Help: "Total number of failed notification dispatch attempts",
	})
)
