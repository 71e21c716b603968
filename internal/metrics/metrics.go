// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordWrites counts attendance writes by operation (upsert, delete) and
	// outcome (committed, reverted).
	RecordWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_record_writes_total",
		Help: "Attendance record writes by operation and outcome.",
	}, []string{"op", "outcome"})

	// StoreReadFailures counts reads that degraded to an empty result.
	StoreReadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_store_read_failures_total",
		Help: "Store reads that failed and were served as empty results.",
	}, []string{"op"})

	SnapshotLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_stats_snapshot_lookups_total",
		Help: "Stats snapshot cache lookups by result (hit, miss).",
	}, []string{"result"})

	MotivationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_motivation_fallbacks_total",
		Help: "Motivation messages served from the local fallback list.",
	})

	WorkerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_worker_events_total",
		Help: "Change events handled by the worker by outcome.",
	}, []string{"outcome"})
)
