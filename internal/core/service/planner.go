package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// Planner optimizes persisted routes that have not started yet. Routes under
// way are repaired through the reoptimizer instead.
type Planner struct {
	routes  ports.RouteRepository
	builder ports.RouteOptimizer
	logger  zerolog.Logger
}

func NewPlanner(routes ports.RouteRepository, builder ports.RouteOptimizer, logger zerolog.Logger) *Planner {
	return &Planner{
		routes:  routes,
		builder: builder,
		logger:  logger,
	}
}

// Optimize rebuilds the visiting order and metrics of a draft or calculated
// route from its origin, and moves drafts to CALCULADA.
func (p *Planner) Optimize(ctx context.Context, routeID string) (*domain.Route, error) {
	routeLocks.Lock(routeID)
	defer routeLocks.Unlock(routeID)

	route, err := p.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.Status != domain.RouteRascunho && route.Status != domain.RouteCalculada {
		return nil, fmt.Errorf("%w: route %s is %s", domain.ErrRouteNotMutable, routeID, route.Status)
	}
	if len(route.Stops) == 0 {
		return nil, domain.ErrNoStopsToOptimize
	}

	built, err := p.builder.Build(route.Origin, route.Stops, route.IncludeReturn)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	route.Stops = built.Stops
	route.Metrics = built.Metrics
	route.Status = domain.RouteCalculada
	route.CalculatedAt = &now

	if err := p.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	p.logger.Info().
		Str("route_id", route.ID).
		Int("stops", len(route.Stops)).
		Float64("distance_km", route.Metrics.DistanceKm).
		Msg("route optimized")

	return route, nil
}

func (p *Planner) Get(ctx context.Context, routeID string) (*domain.Route, error) {
	return p.routes.FindByID(ctx, routeID)
}
