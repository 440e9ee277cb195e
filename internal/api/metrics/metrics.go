// Package metrics defines and registers all custom Prometheus metrics for the
// fleet engine. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at import time
// via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fleet"

// ── Optimization metrics ──────────────────────────────────────────────────────

// RoutesOptimizedTotal counts route builds that completed successfully.
// Label:
//   - mode: "build" (free reorder) or "sequence" (fixed order recompute)
var RoutesOptimizedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routes_optimized_total",
		Help:      "Total number of route optimizations completed, by mode.",
	},
	[]string{"mode"},
)

// ReoptimizationsTotal counts re-optimization requests by scenario.
// Labels:
//   - motivo: the disruption scenario (e.g. "CANCELAMENTO")
//   - action: the repair applied (e.g. "removed", "deferred", "noop")
var ReoptimizationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reoptimizations_total",
		Help:      "Total number of re-optimization repairs applied, by motivo and action.",
	},
	[]string{"motivo", "action"},
)

// ── Distribution metrics ──────────────────────────────────────────────────────

// StopsDistributedTotal counts stops placed on a driver during distribution.
var StopsDistributedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stops_distributed_total",
		Help:      "Total number of stops assigned to drivers.",
	},
)

// StopsUnplacedTotal counts stops no driver could take.
// Label:
//   - reason: short failure description (e.g. "capacity", "no_driver")
var StopsUnplacedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stops_unplaced_total",
		Help:      "Total number of stops that could not be placed, by reason.",
	},
	[]string{"reason"},
)

// ── Geofence metrics ──────────────────────────────────────────────────────────

// GeofenceEventsTotal counts raised geofence events.
// Label:
//   - type: "ENTRADA", "SAIDA" or "TEMPO_EXCEDIDO"
var GeofenceEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geofence_events_total",
		Help:      "Total number of geofence events raised, by type.",
	},
	[]string{"type"},
)

// GeofenceDebouncedTotal counts boundary flips suppressed by debouncing.
var GeofenceDebouncedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geofence_debounced_total",
		Help:      "Total number of containment flips suppressed by the debounce window.",
	},
)

// ── Tracking metrics ──────────────────────────────────────────────────────────

// PositionsIngestedTotal counts position samples accepted by the tracker.
// Label:
//   - result: "recorded" or "duplicate"
var PositionsIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "positions_ingested_total",
		Help:      "Total number of position samples ingested, by result.",
	},
	[]string{"result"},
)

// PositionQueueDepth tracks the number of samples buffered in the dispatcher.
var PositionQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "position_queue_depth",
		Help:      "Current number of position samples pending in dispatcher workers.",
	},
)

// ── Stream metrics ────────────────────────────────────────────────────────────

// StreamSubscribers tracks live websocket subscribers per route room.
var StreamSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_subscribers",
		Help:      "Current number of live-view websocket subscribers.",
	},
)

// StreamDroppedTotal counts events dropped because a subscriber was too slow.
var StreamDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_dropped_total",
		Help:      "Total number of events dropped on slow subscriber channels.",
	},
)
