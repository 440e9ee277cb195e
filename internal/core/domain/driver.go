package domain

import "time"

// DriverStatus represents the availability state of a driver.
type DriverStatus string

const (
	DriverDisponivel   DriverStatus = "DISPONIVEL"
	DriverEmRota       DriverStatus = "EM_ROTA"
	DriverPausado      DriverStatus = "PAUSADO"
	DriverIndisponivel DriverStatus = "INDISPONIVEL"
	DriverOffline      DriverStatus = "OFFLINE"
)

// validDriverTransitions defines the allowed driver state machine transitions.
// INDISPONIVEL and OFFLINE are reachable from every state; drivers come back
// through DISPONIVEL only.
var validDriverTransitions = map[DriverStatus][]DriverStatus{
	DriverDisponivel:   {DriverEmRota, DriverIndisponivel, DriverOffline},
	DriverEmRota:       {DriverPausado, DriverDisponivel, DriverIndisponivel, DriverOffline},
	DriverPausado:      {DriverEmRota, DriverDisponivel, DriverIndisponivel, DriverOffline},
	DriverIndisponivel: {DriverDisponivel, DriverOffline},
	DriverOffline:      {DriverDisponivel},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s DriverStatus) CanTransitionTo(next DriverStatus) bool {
	for _, allowed := range validDriverTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CapacityProfile is the physical limit of a driver's vehicle. It is read
// only for the engine; headroom checks never mutate it.
type CapacityProfile struct {
	MaxWeightKg float64  `json:"max_weight_kg" bson:"max_weight_kg"`
	MaxVolumes  int      `json:"max_volumes" bson:"max_volumes"`
	MaxCubicM   *float64 `json:"max_cubic_m,omitempty" bson:"max_cubic_m,omitempty"`
}

// Driver is a courier with a vehicle, assignable to at most one active route.
type Driver struct {
	ID               string          `json:"id" bson:"_id,omitempty"`
	OrgID            string          `json:"org_id" bson:"org_id"`
	Name             string          `json:"name" bson:"name"`
	Status           DriverStatus    `json:"status" bson:"status"`
	StatusReason     string          `json:"status_reason,omitempty" bson:"status_reason,omitempty"`
	Capacity         CapacityProfile `json:"capacity" bson:"capacity"`
	ZoneIDs          []string        `json:"zone_ids,omitempty" bson:"zone_ids,omitempty"`
	ActiveRouteID    string          `json:"active_route_id,omitempty" bson:"active_route_id,omitempty"`
	LastPosition     *Position       `json:"last_position,omitempty" bson:"last_position,omitempty"`
	StatusChangedAt  time.Time       `json:"status_changed_at" bson:"status_changed_at"`
}

// ServesZone reports whether the driver has affinity for the zone. A driver
// with no configured zones serves everything.
func (d *Driver) ServesZone(zoneID string) bool {
	if zoneID == "" || len(d.ZoneIDs) == 0 {
		return true
	}
	for _, id := range d.ZoneIDs {
		if id == zoneID {
			return true
		}
	}
	return false
}

// Position is a timestamped driver location sample.
type Position struct {
	DriverID    string      `json:"driver_id" bson:"driver_id"`
	RouteID     string      `json:"route_id,omitempty" bson:"route_id,omitempty"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	Timestamp   time.Time   `json:"timestamp" bson:"timestamp"`
}
