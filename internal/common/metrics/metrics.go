// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

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

	RosterSolves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_solves_total",
			Help: "Group solves by method and whether the roster was complete",
		},
		[]string{"method", "complete"},
	)

	RosterSolveNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roster_solve_nodes",
			Help:    "Search nodes visited per exact solve",
			Buckets: prometheus.ExponentialBuckets(16, 4, 10),
		},
	)

	RosterSolvePruned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_solve_pruned_total",
			Help: "Search branches cut, by rule (bound or supply)",
		},
		[]string{"rule"},
	)

	RosterSolveTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roster_solve_timeouts_total",
			Help: "Exact solves stopped by their time limit or context",
		},
	)

	RosterSolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roster_solve_duration_seconds",
			Help:    "Duration of a single group solve in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveSolve records one group solve.
func ObserveSolve(method string, complete bool, nodes, pruned, infeasible int64, timedOut bool, elapsed time.Duration) {
	RosterSolves.WithLabelValues(method, strconv.FormatBool(complete)).Inc()
	if nodes > 0 {
		RosterSolveNodes.Observe(float64(nodes))
	}
	RosterSolvePruned.WithLabelValues("bound").Add(float64(pruned))
	RosterSolvePruned.WithLabelValues("supply").Add(float64(infeasible))
	if timedOut {
		RosterSolveTimeouts.Inc()
	}
	RosterSolveDuration.Observe(elapsed.Seconds())
}

// ObserveJob records a finished worker job. An empty errorCode means success.
func ObserveJob(taskType, errorCode string, elapsed time.Duration) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
