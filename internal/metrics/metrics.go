// Package metrics exposes Prometheus collectors for the ingest pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leavesTotal     *prometheus.CounterVec
	objectsTotal    *prometheus.CounterVec
	syncCyclesTotal *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		leavesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_leaves_total",
				Help: "Total catalog leaves attempted, labeled by result.",
			},
			[]string{"result"},
		)

		objectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_objects_written_total",
				Help: "Total objects written to the store, labeled by zone.",
			},
			[]string{"zone"},
		)

		syncCyclesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_sync_cycles_total",
				Help: "Total durable-store synchronization cycles, labeled by result.",
			},
			[]string{"result"},
		)
	})
}

// ObserveLeaf records the outcome of one catalog leaf attempt.
func ObserveLeaf(result string) {
	if leavesTotal == nil {
		return
	}
	leavesTotal.WithLabelValues(result).Inc()
}

// ObserveObject records one object written to the given zone.
func ObserveObject(zone string) {
	if objectsTotal == nil {
		return
	}
	objectsTotal.WithLabelValues(zone).Inc()
}

// ObserveSyncCycle records the outcome of one synchronization cycle.
func ObserveSyncCycle(result string) {
	if syncCyclesTotal == nil {
		return
	}
	syncCyclesTotal.WithLabelValues(result).Inc()
}
