package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startTime = time.Now()

	// UptimeSeconds tracks the registry service uptime in seconds
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "uptime_seconds",
		Help:      "Time passed since the registry started in seconds",
	})

	// Operation metrics
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "operations_total",
		Help:      "Registry operations (status=ok/rejected)",
	}, []string{"op", "status"})

	// Hard rejection metrics
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "rejections_total",
		Help:      "Rejected operations by error kind",
	}, []string{"op", "kind"})

	// Report metrics
	ReportsTransmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "reports_transmitted_total",
		Help:      "Reports accepted for settlement",
	})

	// Per item outcome metrics
	ItemOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "item_outcomes_total",
		Help:      "Report item outcomes (outcome=performed/insufficient_funds/cancelled/stale/reorged/paused)",
	}, []string{"outcome"})

	// Task lifecycle metrics
	TaskEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "task_events_total",
		Help:      "Task lifecycle events by name",
	}, []string{"event"})

	// Configuration metrics
	ConfigCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "config_count",
		Help:      "Number of configurations installed",
	})

	ActiveTransmitters = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "active_transmitters",
		Help:      "Size of the active transmitter set",
	})

	// Current height metrics
	CurrentHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "current_height",
		Help:      "Ledger height seen by the registry",
	})

	// Memory usage metrics
	MemoryUsageBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "memory_usage_bytes",
		Help:      "Memory consumption",
	})

	GoroutinesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "triggerx",
		Subsystem: "registry",
		Name:      "goroutines_active",
		Help:      "Number of active goroutines",
	})
)
