package domain

import "time"

// RouteStatus represents the lifecycle state of a route.
type RouteStatus string

const (
	RouteRascunho    RouteStatus = "RASCUNHO"
	RouteCalculada   RouteStatus = "CALCULADA"
	RouteEmAndamento RouteStatus = "EM_ANDAMENTO"
	RoutePausada     RouteStatus = "PAUSADA"
	RouteFinalizada  RouteStatus = "FINALIZADA"
	RouteCancelada   RouteStatus = "CANCELADA"
)

// validRouteTransitions defines the allowed route state machine transitions.
// CANCELADA is reachable from every non-terminal state.
var validRouteTransitions = map[RouteStatus][]RouteStatus{
	RouteRascunho:    {RouteCalculada, RouteCancelada},
	RouteCalculada:   {RouteEmAndamento, RouteCancelada},
	RouteEmAndamento: {RoutePausada, RouteFinalizada, RouteCancelada},
	RoutePausada:     {RouteEmAndamento, RouteCancelada},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s RouteStatus) CanTransitionTo(next RouteStatus) bool {
	for _, allowed := range validRouteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RouteStatus) IsTerminal() bool {
	return s == RouteFinalizada || s == RouteCancelada
}

// RouteMetrics aggregates the cost of driving a full route.
type RouteMetrics struct {
	DistanceKm    float64 `json:"distance_km" bson:"distance_km"`
	TravelTimeMin float64 `json:"travel_time_min" bson:"travel_time_min"`
	FuelLiters    float64 `json:"fuel_liters" bson:"fuel_liters"`
	CostBRL       float64 `json:"cost_brl" bson:"cost_brl"`
}

// Route is an ordered assignment of stops to one driver for one shift.
// Stops holds the embedded working set in visiting order; only the Route
// Builder and the Reoptimizer may reorder it.
type Route struct {
	ID            string       `json:"id" bson:"_id,omitempty"`
	OrgID         string       `json:"org_id" bson:"org_id"`
	DriverID      string       `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	Origin        Coordinates  `json:"origin" bson:"origin"`
	Stops         []Stop       `json:"stops" bson:"stops"`
	Metrics       RouteMetrics `json:"metrics" bson:"metrics"`
	Status        RouteStatus  `json:"status" bson:"status"`
	IncludeReturn bool         `json:"include_return" bson:"include_return"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
	CalculatedAt  *time.Time   `json:"calculated_at,omitempty" bson:"calculated_at,omitempty"`
	FinalizedAt   *time.Time   `json:"finalized_at,omitempty" bson:"finalized_at,omitempty"`
}

// PendingStops returns the stops that are not yet in a terminal state,
// preserving sequence order.
func (r *Route) PendingStops() []Stop {
	out := make([]Stop, 0, len(r.Stops))
	for _, s := range r.Stops {
		if !s.Status.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// LastCompletedPosition returns the position the driver is assumed to resume
// from when the route tail is rebuilt: the coordinates of the last stop in a
// terminal state, or the route origin when none is.
func (r *Route) LastCompletedPosition() Coordinates {
	pos := r.Origin
	for _, s := range r.Stops {
		if s.Status.IsTerminal() {
			pos = s.Coordinates
		}
	}
	return pos
}
