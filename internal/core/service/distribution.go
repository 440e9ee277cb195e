package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// FleetDistributor assigns unrouted stops to eligible drivers across an
// organization and delegates tour construction to the route builder.
type FleetDistributor struct {
	stops    ports.StopRepository
	drivers  ports.DriverRepository
	routes   ports.RouteRepository
	builder  ports.RouteOptimizer
	capacity *CapacityValidator
	logger   zerolog.Logger
}

func NewFleetDistributor(
	stops ports.StopRepository,
	drivers ports.DriverRepository,
	routes ports.RouteRepository,
	builder ports.RouteOptimizer,
	capacity *CapacityValidator,
	logger zerolog.Logger,
) *FleetDistributor {
	return &FleetDistributor{
		stops:    stops,
		drivers:  drivers,
		routes:   routes,
		builder:  builder,
		capacity: capacity,
		logger:   logger,
	}
}

// candidate is the in-flight view of one driver during an assignment pass.
type candidate struct {
	driver *domain.Driver
	route  *domain.Route
	loads  []domain.Load
}

// utilization is the load-balance metric used for greedy selection: fraction
// of weight capacity already committed.
func (c *candidate) utilization() float64 {
	if c.driver.Capacity.MaxWeightKg <= 0 {
		return 0
	}
	var total float64
	for _, l := range c.loads {
		total += resolveLoad(l).WeightKg
	}
	return total / c.driver.Capacity.MaxWeightKg
}

// Distribute assigns each stop to the eligible driver with headroom and the
// lowest current load, then rebuilds and persists each affected route.
// Unplaceable stops are reported per stop, never dropped.
func (d *FleetDistributor) Distribute(ctx context.Context, orgID string, stopIDs []string) (*ports.DistributionResult, error) {
	result, candidates, err := d.assign(ctx, orgID, stopIDs)
	if err != nil {
		return nil, err
	}
	if err := d.commit(ctx, result, candidates); err != nil {
		return nil, err
	}
	return result, nil
}

// Suggest runs the identical assignment computation without mutating
// persisted state; the caller shows the suggestion to a human to confirm.
func (d *FleetDistributor) Suggest(ctx context.Context, orgID string, stopIDs []string) (*ports.DistributionResult, error) {
	result, _, err := d.assign(ctx, orgID, stopIDs)
	return result, err
}

// Redistribute pulls all un-delivered stops of an unavailable driver back
// into the pool and re-runs automatic distribution for them.
func (d *FleetDistributor) Redistribute(ctx context.Context, driverID string) (*ports.DistributionResult, error) {
	driver, err := d.drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	route, err := d.routes.FindActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	routeLocks.Lock(route.ID)
	defer routeLocks.Unlock(route.ID)

	var pool []string
	kept := route.Stops[:0]
	for _, s := range route.Stops {
		if s.Status.IsTerminal() {
			kept = append(kept, s)
			continue
		}
		detached := s
		detached.RouteID = ""
		detached.Sequence = 0
		detached.LegDistanceKm = 0
		detached.LegTimeMin = 0
		detached.Status = domain.StopPendente
		if err := d.stops.Save(ctx, &detached); err != nil {
			return nil, fmt.Errorf("redistribute: detach stop %s: %w", s.ID, err)
		}
		pool = append(pool, s.ID)
	}
	route.Stops = kept
	if err := d.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("redistribute: save source route: %w", err)
	}
	if driver.ActiveRouteID != "" {
		driver.ActiveRouteID = ""
		if err := d.drivers.Save(ctx, driver); err != nil {
			return nil, fmt.Errorf("redistribute: unlink driver %s: %w", driverID, err)
		}
	}

	d.logger.Info().
		Str("driver_id", driverID).
		Int("stops_pooled", len(pool)).
		Msg("driver unavailable, redistributing pending stops")

	if len(pool) == 0 {
		return &ports.DistributionResult{Routes: map[string]*domain.Route{}}, nil
	}
	return d.Distribute(ctx, driver.OrgID, pool)
}

// assign performs the pure greedy computation shared by Distribute and
// Suggest. Ties between equally loaded drivers break by driver id.
func (d *FleetDistributor) assign(ctx context.Context, orgID string, stopIDs []string) (*ports.DistributionResult, map[string]*candidate, error) {
	result := &ports.DistributionResult{Routes: map[string]*domain.Route{}}

	var batch []*domain.Stop
	if len(stopIDs) == 0 {
		unassigned, err := d.stops.FindUnassigned(ctx, orgID)
		if err != nil {
			return nil, nil, err
		}
		batch = unassigned
	} else {
		for _, id := range stopIDs {
			s, err := d.stops.FindByID(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			// A stop has at most one route owner. Explicitly named stops
			// that are already routed or done are reported, never reassigned.
			if s.RouteID != "" {
				result.Unplaced = append(result.Unplaced, domain.PlacementFailure{
					StopID: s.ID,
					Reason: "stop already owned by route " + s.RouteID,
				})
				continue
			}
			if s.Status.IsTerminal() {
				result.Unplaced = append(result.Unplaced, domain.PlacementFailure{
					StopID: s.ID,
					Reason: "stop status is terminal",
				})
				continue
			}
			batch = append(batch, s)
		}
	}

	eligible, err := d.drivers.FindEligible(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	candidates := make(map[string]*candidate)
	var order []string
	for _, drv := range eligible {
		if drv.Status != domain.DriverDisponivel {
			continue
		}
		candidates[drv.ID] = &candidate{driver: drv}
		order = append(order, drv.ID)
	}
	sort.Strings(order)

	for _, stop := range batch {
		best := d.pickDriver(order, candidates, stop)
		if best == nil {
			result.Unplaced = append(result.Unplaced, domain.PlacementFailure{
				StopID: stop.ID,
				Reason: "no eligible driver with capacity headroom",
			})
			continue
		}
		best.loads = append(best.loads, stop.Load)
		s := *stop
		best.pending(&s)
		result.Assignments = append(result.Assignments, ports.Assignment{
			StopID:   stop.ID,
			DriverID: best.driver.ID,
		})
	}

	return result, candidates, nil
}

// pickDriver returns the zone-compatible driver whose committed load plus the
// stop still fits, preferring the lowest utilization; order is pre-sorted by
// driver id so equal utilization resolves deterministically.
func (d *FleetDistributor) pickDriver(order []string, candidates map[string]*candidate, stop *domain.Stop) *candidate {
	var best *candidate
	bestUtil := 0.0
	for _, id := range order {
		c := candidates[id]
		if !c.driver.ServesZone(stop.ZoneID) {
			continue
		}
		report := d.capacity.CheckRoute(c.driver.Capacity, append(append([]domain.Load{}, c.loads...), stop.Load))
		if !report.Fits {
			continue
		}
		if u := c.utilization(); best == nil || u < bestUtil {
			best, bestUtil = c, u
		}
	}
	return best
}

// pending stages a stop on the candidate's working route.
func (c *candidate) pending(s *domain.Stop) {
	if c.route == nil {
		c.route = &domain.Route{
			OrgID:     c.driver.OrgID,
			DriverID:  c.driver.ID,
			Status:    domain.RouteRascunho,
			CreatedAt: time.Now().UTC(),
		}
		if c.driver.LastPosition != nil {
			c.route.Origin = c.driver.LastPosition.Coordinates
		}
	}
	s.RouteID = c.route.ID
	s.Status = domain.StopPendente
	c.route.Stops = append(c.route.Stops, *s)
}

// commit rebuilds and persists the route of every driver that received work.
func (d *FleetDistributor) commit(ctx context.Context, result *ports.DistributionResult, candidates map[string]*candidate) error {
	now := time.Now().UTC()
	for id, c := range candidates {
		if c.route == nil || len(c.route.Stops) == 0 {
			continue
		}
		if err := d.commitDriver(ctx, id, c, now, result); err != nil {
			return err
		}
	}
	return nil
}

func (d *FleetDistributor) commitDriver(ctx context.Context, id string, c *candidate, now time.Time, result *ports.DistributionResult) error {
	existing, err := d.routes.FindActiveByDriver(ctx, id)
	if err == nil && existing != nil {
		routeLocks.Lock(existing.ID)
		defer routeLocks.Unlock(existing.ID)
		existing.Stops = append(existing.Stops, c.route.Stops...)
		c.route = existing
	}

	built, err := d.builder.Build(c.route.Origin, c.route.PendingStops(), c.route.IncludeReturn)
	if err != nil {
		return fmt.Errorf("distribute: build route for driver %s: %w", id, err)
	}
	c.route.Stops = mergeOrdered(c.route.Stops, built.Stops)
	c.route.Metrics = built.Metrics
	if c.route.Status == domain.RouteRascunho {
		c.route.Status = domain.RouteCalculada
	}
	c.route.CalculatedAt = &now

	// Save assigns the route id when the aggregate is new; stops are linked
	// afterwards so ownership is recorded against the persisted id.
	if err := d.routes.Save(ctx, c.route); err != nil {
		return fmt.Errorf("distribute: save route for driver %s: %w", id, err)
	}
	for i := range c.route.Stops {
		s := c.route.Stops[i]
		s.RouteID = c.route.ID
		if err := d.stops.Save(ctx, &s); err != nil {
			return fmt.Errorf("distribute: save stop %s: %w", s.ID, err)
		}
	}

	if c.driver.ActiveRouteID != c.route.ID {
		c.driver.ActiveRouteID = c.route.ID
		if err := d.drivers.Save(ctx, c.driver); err != nil {
			return fmt.Errorf("distribute: link driver %s: %w", id, err)
		}
	}

	result.Routes[id] = c.route

	d.logger.Info().
		Str("driver_id", id).
		Str("route_id", c.route.ID).
		Int("stops", len(c.route.Stops)).
		Float64("distance_km", c.route.Metrics.DistanceKm).
		Msg("route distributed")
	return nil
}

// mergeOrdered replaces the pending tail of a route with the rebuilt order
// while keeping terminal stops in their historical positions at the front.
func mergeOrdered(all []domain.Stop, rebuilt []domain.Stop) []domain.Stop {
	out := make([]domain.Stop, 0, len(all))
	for _, s := range all {
		if s.Status.IsTerminal() {
			out = append(out, s)
		}
	}
	base := len(out)
	for i, s := range rebuilt {
		s.Sequence = base + i + 1
		out = append(out, s)
	}
	return out
}
