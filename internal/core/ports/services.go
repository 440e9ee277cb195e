package ports

import (
	"context"
	"time"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

// CapacityReport is the outcome of a capacity check. Headroom values are the
// remaining room per dimension after the candidate load; they are never
// negative for a committed assignment.
type CapacityReport struct {
	Fits             bool
	WeightHeadroomKg float64
	VolumeHeadroom   int
	CubicHeadroomM   *float64
	UtilizationPct   float64
	// Exceeded is set when Fits is false: the first dimension that failed.
	Exceeded *domain.CapacityExceededError
}

// BuildResult is produced by the route builder for one driver's stops.
type BuildResult struct {
	Stops        []domain.Stop // visiting order, sequence indices assigned
	Metrics      domain.RouteMetrics
	ReturnLegKm  float64 // 0 when the return leg is disabled
	ReturnLegMin float64
}

// RouteOptimizer orders one driver's stops into a tour.
type RouteOptimizer interface {
	Build(origin domain.Coordinates, stops []domain.Stop, includeReturn bool) (*BuildResult, error)
	// Sequence recomputes legs, sequence indices and aggregates for stops in
	// the given fixed order, without reordering them.
	Sequence(origin domain.Coordinates, stops []domain.Stop, includeReturn bool) (*BuildResult, error)
}

// PlannerService orchestrates optimization of a persisted route.
type PlannerService interface {
	// Optimize rebuilds the route's visiting order and metrics from its
	// origin. Only routes that have not started yet can be optimized.
	Optimize(ctx context.Context, routeID string) (*domain.Route, error)
	Get(ctx context.Context, routeID string) (*domain.Route, error)
}

// Assignment pairs a stop with the driver chosen for it.
type Assignment struct {
	StopID   string `json:"stop_id"`
	DriverID string `json:"driver_id"`
}

// DistributionResult reports a distribution batch: per-stop assignments,
// rebuilt routes per driver, and the stops that could not be placed.
type DistributionResult struct {
	Assignments []Assignment
	Routes      map[string]*domain.Route // keyed by driver id
	Unplaced    []domain.PlacementFailure
}

// FleetService distributes unassigned stops across eligible drivers.
type FleetService interface {
	Distribute(ctx context.Context, orgID string, stopIDs []string) (*DistributionResult, error)
	// Suggest computes the same assignment without mutating persisted state.
	Suggest(ctx context.Context, orgID string, stopIDs []string) (*DistributionResult, error)
	// Redistribute pulls an unavailable driver's pending stops back into the
	// pool and re-runs distribution against the remaining drivers.
	Redistribute(ctx context.Context, driverID string) (*DistributionResult, error)
}

// RepairResult describes the local repair applied by the reoptimizer.
type RepairResult struct {
	Motivo       domain.Motivo
	Action       string // "removed", "deferred", "inserted", "resequenced", "skipped", "rescheduled", "noop"
	AffectedStop string
	Route        *domain.Route
}

// ReoptimizeService applies the minimal local repair for a scenario.
type ReoptimizeService interface {
	Reoptimize(ctx context.Context, routeID string, req domain.ReoptimizationRequest) (*RepairResult, error)
}

// StopTransitionInput is a delivery-status transition request.
type StopTransitionInput struct {
	StopID        string
	RouteID       string
	Status        domain.DeliveryStatus
	FailureReason domain.FailureReason // required when Status is FALHA
	At            time.Time
}

// DriverTransitionInput is a driver-status transition request.
type DriverTransitionInput struct {
	DriverID string
	Status   domain.DriverStatus
	Reason   string // required when Status is INDISPONIVEL
	At       time.Time
}

// TrackerService owns the route, stop and driver state machines and the live
// metric recomputation that follows every transition.
type TrackerService interface {
	TransitionRoute(ctx context.Context, routeID string, next domain.RouteStatus) (*domain.Route, error)
	TransitionStop(ctx context.Context, in StopTransitionInput) (*domain.Route, error)
	TransitionDriver(ctx context.Context, in DriverTransitionInput) (*domain.Driver, error)
	RecordPosition(ctx context.Context, p domain.Position) error
	LiveMetrics(route *domain.Route) domain.LiveMetrics
}

// GeofenceService evaluates driver positions against assigned zones.
type GeofenceService interface {
	Evaluate(ctx context.Context, p domain.Position) ([]*domain.GeofenceEvent, error)
}
