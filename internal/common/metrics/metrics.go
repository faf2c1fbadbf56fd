// Package metrics exposes the prometheus collectors the ingest client
// updates as it pulls elements from workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dataservice_client"

var (
	ElementsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_read_total",
			Help:      "Number of elements successfully read from workers, by task id.",
		},
		[]string{"task_id"},
	)

	OutstandingRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_requests",
			Help:      "Current number of in-flight GetElement calls across all workers.",
		},
	)

	ActiveTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tasks",
			Help:      "Current number of tasks known to the task manager.",
		},
	)

	WorkerRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_retries_total",
			Help:      "Number of transient-error retries against a worker, by task id.",
		},
		[]string{"task_id"},
	)

	TaskManagerPollLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_manager_poll_latency_seconds",
			Help:      "Latency of a single dispatcher GetTasks poll.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
		},
	)

	TaskManagerPollErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_manager_poll_errors_total",
			Help:      "Number of dispatcher GetTasks polls that returned an error.",
		},
	)
)
