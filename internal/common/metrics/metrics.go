// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Matching metrics.
var (
	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_rank_requests_total",
			Help: "Ranking requests by candidate backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_rank_duration_seconds",
			Help:    "Duration of a ranking request",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_candidates_scored_total",
			Help: "Number of candidates that received a score",
		},
		[]string{"backend"},
	)

	HistoryRowsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentor_history_rows_failed_total",
			Help: "Match history rows that could not be written",
		},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_search_requests_total",
			Help: "Filtered mentor searches by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_recommend_requests_total",
			Help: "Recommendation requests by context and outcome",
		},
		[]string{"context", "outcome"},
	)

	SourceBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mentor_source_breaker_state",
			Help: "Circuit breaker state per candidate source (0 closed, 1 half-open, 2 open)",
		},
		[]string{"source"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Outcome labels a result size and error pair.
func Outcome(n int, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case n == 0:
		return OutcomeEmpty
	default:
		return OutcomeSuccess
	}
}
