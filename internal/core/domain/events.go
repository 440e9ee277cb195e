package domain

import "time"

// StatusEventType enumerates the live events fanned out to route subscribers.
type StatusEventType string

const (
	EventRouteStatus  StatusEventType = "route_status"
	EventStopStatus   StatusEventType = "stop_status"
	EventDriverStatus StatusEventType = "driver_status"
	EventPosition     StatusEventType = "position"
	EventRouteMetrics StatusEventType = "route_metrics"
)

// StatusEvent is emitted on every state transition of a route, stop or
// driver. Events are streamed to subscribers; a history record is written as
// a side effect but the engine never reads it back.
type StatusEvent struct {
	Type      StatusEventType `json:"type" bson:"type"`
	RouteID   string          `json:"route_id" bson:"route_id"`
	Payload   any             `json:"payload" bson:"payload"`
	Timestamp time.Time       `json:"timestamp" bson:"timestamp"`
}

// LiveMetrics is the derived view recomputed on every transition.
type LiveMetrics struct {
	StopsRemaining int     `json:"stops_remaining"`
	StopsDelivered int     `json:"stops_delivered"`
	OnTimePct      float64 `json:"on_time_pct"`
	EtaDriftMin    float64 `json:"eta_drift_min"`
}
