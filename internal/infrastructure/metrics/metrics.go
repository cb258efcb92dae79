// Package metrics exposes prometheus collectors for the scheduling engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	SweepsTotal          prometheus.Counter
	TasksEvaluated       prometheus.Counter
	NotificationsCreated prometheus.Counter
	DuplicateInserts     prometheus.Counter
	TaskFailures         prometheus.Counter
	SuccessorsSpawned    prometheus.Counter
	SweepDuration        prometheus.Histogram
}

// New creates the collectors and registers them on the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_sweeps_total",
			Help: "Total number of scheduler sweeps executed",
		}),
		TasksEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_tasks_evaluated_total",
			Help: "Total number of tasks evaluated across sweeps",
		}),
		NotificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_notifications_created_total",
			Help: "Total number of notifications persisted",
		}),
		DuplicateInserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_duplicate_inserts_total",
			Help: "Inserts rejected by the dedup uniqueness constraint",
		}),
		TaskFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_task_failures_total",
			Help: "Per-task sweep failures (retried on the next sweep)",
		}),
		SuccessorsSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_successors_spawned_total",
			Help: "Successor tasks created by the completion hook",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_sweep_duration_seconds",
			Help:    "Duration of one full sweep in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.SweepsTotal,
		m.TasksEvaluated,
		m.NotificationsCreated,
		m.DuplicateInserts,
		m.TaskFailures,
		m.SuccessorsSpawned,
		m.SweepDuration,
	)

	return m
}

// ObserveSweep records the outcome of one sweep.
func (m *Metrics) ObserveSweep(tasks, created, duplicates, failures int, duration time.Duration) {
	m.SweepsTotal.Inc()
	m.TasksEvaluated.Add(float64(tasks))
	m.NotificationsCreated.Add(float64(created))
	m.DuplicateInserts.Add(float64(duplicates))
	m.TaskFailures.Add(float64(failures))
	m.SweepDuration.Observe(duration.Seconds())
}
