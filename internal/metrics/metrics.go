// Package metrics exposes Prometheus counters and histograms for the
// core's hot paths: lifecycle transitions, assignment ranking and the
// dispatch queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_lifecycle_transitions_total",
		Help: "Count of lifecycle transitions by kind and outcome.",
	}, []string{"kind", "outcome"})

	AssignmentRankDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_rank_duration_seconds",
		Help:    "Time spent scoring and ranking fleet candidates.",
		Buckets: prometheus.DefBuckets,
	})

	AssignmentCandidatesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_candidates_found",
		Help:    "Number of eligible candidates returned per ranking call.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
	})

	DispatchJobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_jobs_enqueued_total",
		Help: "Count of dispatch jobs enqueued by lane.",
	}, []string{"lane"})

	DispatchJobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_job_outcomes_total",
		Help: "Count of dispatch job delivery attempts by outcome.",
	}, []string{"outcome"})

	DeadlineSweepExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifecycle_deadline_sweep_expired_total",
		Help: "Count of assignment windows auto-rejected by the deadline sweep.",
	})

	LedgerReconcileDiscrepancies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_reconcile_discrepancies_total",
		Help: "Count of load discrepancies corrected by the hourly reconciliation job.",
	}, []string{"entity"})
)
