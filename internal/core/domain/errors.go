package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. The API layer maps
// these onto HTTP statuses in one place.
var (
	ErrValidation         = errors.New("invalid input")
	ErrRouteNotFound      = errors.New("route not found")
	ErrStopNotFound       = errors.New("stop not found")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrZoneNotFound       = errors.New("zone not found")
	ErrStateConflict      = errors.New("invalid status transition")
	ErrNoStopsToOptimize  = errors.New("no stops to optimize")
	ErrMissingTarget      = errors.New("motivo requires a stop id")
	ErrRouteNotMutable    = errors.New("route is not in a mutable state")
)

// CapacityExceededError reports which capacity dimension a load blows
// through and by how much.
type CapacityExceededError struct {
	Dimension string  // "weight_kg", "volumes" or "cubic_m"
	Limit     float64
	Attempted float64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: %s %.2f over limit %.2f (excess %.2f)",
		e.Dimension, e.Attempted, e.Limit, e.Excess())
}

// Excess returns the amount by which the limit is exceeded.
func (e *CapacityExceededError) Excess() float64 {
	return e.Attempted - e.Limit
}

// PlacementFailure records one stop the fleet distributor could not place.
// Batch distribution reports these alongside successes instead of aborting.
type PlacementFailure struct {
	StopID string `json:"stop_id"`
	Reason string `json:"reason"`
}
