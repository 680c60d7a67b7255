package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Task metrics
	TasksCreated    prometheus.Counter
	TaskReorders    prometheus.Counter
	TaskMoves       prometheus.Counter
	TaskBulkUpdates *prometheus.CounterVec

	// Dependency graph metrics
	DependenciesAdded   prometheus.Counter
	DependenciesRemoved prometheus.Counter
	CycleRejections     prometheus.Counter

	// Requirement metrics
	RequirementVersions prometheus.Counter
	AnalysesRun         prometheus.Counter
	AnalysisLatency     prometheus.Histogram
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_tasks_created_total",
			Help: "Total number of tasks created",
		}),

		TaskReorders: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_task_reorders_total",
			Help: "Total number of successful task reorder operations",
		}),

		TaskMoves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_task_moves_total",
			Help: "Total number of tasks moved between lists",
		}),

		TaskBulkUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "planboard_task_bulk_updates_total",
			Help: "Bulk task update outcomes by result",
		}, []string{"result"}), // "success" or "failure"

		DependenciesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_dependencies_added_total",
			Help: "Total number of dependency edges added",
		}),

		DependenciesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_dependencies_removed_total",
			Help: "Total number of dependency edges removed",
		}),

		CycleRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_dependency_cycle_rejections_total",
			Help: "Dependency additions rejected because they would form a cycle",
		}),

		RequirementVersions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_requirement_versions_total",
			Help: "Total number of requirement version bumps",
		}),

		AnalysesRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "planboard_requirement_analyses_total",
			Help: "Total number of requirement quality analyses performed",
		}),

		AnalysisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "planboard_requirement_analysis_duration_seconds",
			Help:    "Requirement analysis latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordTaskCreated records a created task
func (m *Metrics) RecordTaskCreated() {
	if m != nil {
		m.TasksCreated.Inc()
	}
}

// RecordTaskReorder records a successful reorder
func (m *Metrics) RecordTaskReorder() {
	if m != nil {
		m.TaskReorders.Inc()
	}
}

// RecordTaskMove records a cross-list move
func (m *Metrics) RecordTaskMove() {
	if m != nil {
		m.TaskMoves.Inc()
	}
}

// RecordBulkUpdate records one bulk update outcome
func (m *Metrics) RecordBulkUpdate(result string) {
	if m != nil {
		m.TaskBulkUpdates.WithLabelValues(result).Inc()
	}
}

// RecordDependencyAdded records an added edge
func (m *Metrics) RecordDependencyAdded() {
	if m != nil {
		m.DependenciesAdded.Inc()
	}
}

// RecordDependencyRemoved records a removed edge
func (m *Metrics) RecordDependencyRemoved() {
	if m != nil {
		m.DependenciesRemoved.Inc()
	}
}

// RecordCycleRejection records a rejected cyclic edge
func (m *Metrics) RecordCycleRejection() {
	if m != nil {
		m.CycleRejections.Inc()
	}
}

// RecordRequirementVersion records a version bump
func (m *Metrics) RecordRequirementVersion() {
	if m != nil {
		m.RequirementVersions.Inc()
	}
}

// RecordAnalysis records one quality analysis and its latency
func (m *Metrics) RecordAnalysis(seconds float64) {
	if m != nil {
		m.AnalysesRun.Inc()
		m.AnalysisLatency.Observe(seconds)
	}
}
