package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckinsTotal counts accepted check-ins by resolved status.
	CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendboard_checkins_total",
		Help: "Accepted check-ins by resolved status.",
	}, []string{"status"})

	// NewcomersTotal counts people admitted at the door.
	NewcomersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendboard_newcomer_admissions_total",
		Help: "People admitted at the door.",
	})

	// InsightRequestsTotal counts insight analysis calls by outcome.
	InsightRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendboard_insight_requests_total",
		Help: "Insight analysis calls by outcome.",
	}, []string{"outcome"})
)
