package ports

import (
	"context"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

// RouteRepository defines persistence operations for routes. The engine
// mutates routes in memory and hands the updated aggregate back through Save;
// Save assigns an id to aggregates that do not carry one yet.
type RouteRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Route, error)
	FindActiveByDriver(ctx context.Context, driverID string) (*domain.Route, error)
	Save(ctx context.Context, r *domain.Route) error
}

// StopRepository defines persistence operations for stops outside a route
// working set (unassigned pool, detach on redistribution).
type StopRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Stop, error)
	FindUnassigned(ctx context.Context, orgID string) ([]*domain.Stop, error)
	Save(ctx context.Context, s *domain.Stop) error
}

// DriverRepository defines persistence operations for drivers.
type DriverRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Driver, error)
	FindEligible(ctx context.Context, orgID string) ([]*domain.Driver, error)
	Save(ctx context.Context, d *domain.Driver) error
}

// ZoneRepository defines read access to geofence zones.
type ZoneRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Zone, error)
	FindByDriver(ctx context.Context, driverID string) ([]*domain.Zone, error)
}

// GeofenceEventRepository appends geofence events. Append-only.
type GeofenceEventRepository interface {
	Append(ctx context.Context, e *domain.GeofenceEvent) error
	ListByDriver(ctx context.Context, driverID string, limit int) ([]*domain.GeofenceEvent, error)
}

// StatusHistoryRepository appends status events as a durable audit trail.
// The engine writes it as a side effect and never reads it back.
type StatusHistoryRepository interface {
	Append(ctx context.Context, e *domain.StatusEvent) error
}

// PositionStore keeps the bounded most-recent-N position history per driver
// and deduplicates repeated samples.
type PositionStore interface {
	// Push appends a position, trimming the history to the configured limit.
	Push(ctx context.Context, p *domain.Position) error
	// Recent returns up to limit positions, newest first.
	Recent(ctx context.Context, driverID string, limit int) ([]*domain.Position, error)
	// Seen reports whether this exact sample was already ingested and marks
	// it as seen. Duplicate samples are applied as no-ops.
	Seen(ctx context.Context, p *domain.Position) (bool, error)
}

// Publisher fans a status event out to all subscribers of its route room.
// Implementations must never block the caller on slow subscribers.
type Publisher interface {
	Publish(e domain.StatusEvent)
}
