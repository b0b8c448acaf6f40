package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)

	ChallengeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillwise_challenge_completions_total",
			Help: "Completion requests by outcome (admitted, duplicate, blocked)",
		},
		[]string{"outcome"},
	)
	PrerequisiteRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skillwise_prerequisite_rejections_total",
			Help: "Completions refused because prerequisites were not done",
		},
	)
	GoalRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillwise_goal_recomputes_total",
			Help: "Goal progress recomputes by trigger",
		},
		[]string{"trigger"},
	)
	RecomputeJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillwise_recompute_jobs_total",
			Help: "Recompute queue jobs by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// InitPrometheus registers the collectors with the default registry. Safe to call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AuthRejections,
			ChallengeCompletions,
			PrerequisiteRejections,
			GoalRecomputes,
			RecomputeJobs,
		)
	})
}
