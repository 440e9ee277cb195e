package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// Tracker owns the route, stop and driver state machines. Every committed
// transition recomputes live metrics, appends a durable history record and
// fans a status event out to the route's subscribers. The transition itself
// is pure; dispatch happens only after the state is persisted.
type Tracker struct {
	routes    ports.RouteRepository
	drivers   ports.DriverRepository
	stops     ports.StopRepository
	history   ports.StatusHistoryRepository
	positions ports.PositionStore
	publisher ports.Publisher
	fleet     ports.FleetService
	logger    zerolog.Logger
}

func NewTracker(
	routes ports.RouteRepository,
	drivers ports.DriverRepository,
	stops ports.StopRepository,
	history ports.StatusHistoryRepository,
	positions ports.PositionStore,
	publisher ports.Publisher,
	fleet ports.FleetService,
	logger zerolog.Logger,
) *Tracker {
	return &Tracker{
		routes:    routes,
		drivers:   drivers,
		stops:     stops,
		history:   history,
		positions: positions,
		publisher: publisher,
		fleet:     fleet,
		logger:    logger,
	}
}

// TransitionRoute applies a route lifecycle transition. Repeating the current
// status is an idempotent no-op; an illegal transition fails with a state
// conflict and no mutation.
func (t *Tracker) TransitionRoute(ctx context.Context, routeID string, next domain.RouteStatus) (*domain.Route, error) {
	routeLocks.Lock(routeID)
	defer routeLocks.Unlock(routeID)

	route, err := t.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.Status == next {
		return route, nil
	}
	if !route.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: route %s → %s", domain.ErrStateConflict, route.Status, next)
	}

	route.Status = next
	now := time.Now().UTC()
	if next == domain.RouteFinalizada {
		// Finalizing freezes the metrics as computed at this instant.
		route.FinalizedAt = &now
	}

	if err := t.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("transition route: %w", err)
	}

	t.emit(ctx, domain.StatusEvent{
		Type:      domain.EventRouteStatus,
		RouteID:   route.ID,
		Payload:   map[string]any{"status": route.Status, "metrics": t.LiveMetrics(route)},
		Timestamp: now,
	})
	return route, nil
}

// TransitionStop applies a delivery-status transition to a stop inside its
// route. Terminal statuses are immutable; FALHA requires a reason code.
func (t *Tracker) TransitionStop(ctx context.Context, in ports.StopTransitionInput) (*domain.Route, error) {
	if in.Status == domain.StopFalha && !domain.ValidFailureReason(in.FailureReason) {
		return nil, fmt.Errorf("%w: FALHA requires a failure reason", domain.ErrValidation)
	}

	routeLocks.Lock(in.RouteID)
	defer routeLocks.Unlock(in.RouteID)

	route, err := t.routes.FindByID(ctx, in.RouteID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, s := range route.Stops {
		if s.ID == in.StopID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrStopNotFound, in.StopID)
	}

	stop := &route.Stops[idx]
	if stop.Status == in.Status {
		return route, nil // duplicate delivery update, no-op
	}
	if !stop.Status.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w: stop %s → %s", domain.ErrStateConflict, stop.Status, in.Status)
	}

	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	stop.Status = in.Status
	if in.Status == domain.StopFalha {
		stop.FailureReason = in.FailureReason
	}
	if in.Status == domain.StopEntregue {
		stop.DeliveredAt = &at
	}

	if err := t.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("transition stop: %w", err)
	}
	saved := *stop
	if err := t.stops.Save(ctx, &saved); err != nil {
		return nil, fmt.Errorf("transition stop: %w", err)
	}

	t.emit(ctx, domain.StatusEvent{
		Type:    domain.EventStopStatus,
		RouteID: route.ID,
		Payload: map[string]any{
			"stop_id": stop.ID,
			"status":  stop.Status,
			"reason":  stop.FailureReason,
			"metrics": t.LiveMetrics(route),
		},
		Timestamp: at,
	})
	return route, nil
}

// TransitionDriver applies a driver availability transition. Going
// INDISPONIVEL with active stops hands them to fleet redistribution.
func (t *Tracker) TransitionDriver(ctx context.Context, in ports.DriverTransitionInput) (*domain.Driver, error) {
	if in.Status == domain.DriverIndisponivel && in.Reason == "" {
		return nil, fmt.Errorf("%w: INDISPONIVEL requires a reason", domain.ErrValidation)
	}

	driver, err := t.drivers.FindByID(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}
	if driver.Status == in.Status {
		return driver, nil
	}
	if !driver.Status.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w: driver %s → %s", domain.ErrStateConflict, driver.Status, in.Status)
	}

	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	driver.Status = in.Status
	driver.StatusReason = in.Reason
	driver.StatusChangedAt = at

	if err := t.drivers.Save(ctx, driver); err != nil {
		return nil, fmt.Errorf("transition driver: %w", err)
	}

	routeID := driver.ActiveRouteID
	if routeID != "" {
		t.emit(ctx, domain.StatusEvent{
			Type:      domain.EventDriverStatus,
			RouteID:   routeID,
			Payload:   map[string]any{"driver_id": driver.ID, "status": driver.Status, "reason": in.Reason},
			Timestamp: at,
		})
	}

	// Only a driver that actually carries a route has stops to hand off.
	if in.Status == domain.DriverIndisponivel && driver.ActiveRouteID != "" {
		if result, err := t.fleet.Redistribute(ctx, driver.ID); err != nil {
			t.logger.Error().Err(err).Str("driver_id", driver.ID).Msg("redistribution failed")
		} else if len(result.Unplaced) > 0 {
			t.logger.Warn().
				Str("driver_id", driver.ID).
				Int("unplaced", len(result.Unplaced)).
				Msg("redistribution left stops unplaced")
		}
	}
	return driver, nil
}

// RecordPosition ingests one position sample: duplicates are dropped, the
// bounded history is appended, and subscribers of the driver's route get a
// position event. Ordering per route is the dispatcher's responsibility.
func (t *Tracker) RecordPosition(ctx context.Context, p domain.Position) error {
	if !p.Coordinates.Valid() {
		return fmt.Errorf("%w: position out of WGS 84 bounds", domain.ErrValidation)
	}

	dup, err := t.positions.Seen(ctx, &p)
	if err != nil {
		t.logger.Warn().Err(err).Str("driver_id", p.DriverID).Msg("position dedup check failed, processing anyway")
	} else if dup {
		return nil
	}

	if err := t.positions.Push(ctx, &p); err != nil {
		return fmt.Errorf("record position: %w", err)
	}

	driver, err := t.drivers.FindByID(ctx, p.DriverID)
	if err != nil {
		return err
	}
	driver.LastPosition = &p
	if err := t.drivers.Save(ctx, driver); err != nil {
		return fmt.Errorf("record position: %w", err)
	}

	if p.RouteID != "" {
		t.emit(ctx, domain.StatusEvent{
			Type:      domain.EventPosition,
			RouteID:   p.RouteID,
			Payload:   p,
			Timestamp: p.Timestamp,
		})
	}
	return nil
}

// LiveMetrics recomputes the derived view of a route: stops remaining,
// on-time percentage over delivered stops, and ETA drift versus the plan.
func (t *Tracker) LiveMetrics(route *domain.Route) domain.LiveMetrics {
	var m domain.LiveMetrics
	var onTime, withWindow int
	var plannedMin float64

	for _, s := range route.Stops {
		switch {
		case s.Status == domain.StopEntregue:
			m.StopsDelivered++
			if s.Window != nil && s.DeliveredAt != nil {
				withWindow++
				delivered := s.DeliveredAt.Hour()*60 + s.DeliveredAt.Minute()
				if delivered < s.Window.EndMin {
					onTime++
				}
			}
		case !s.Status.IsTerminal():
			m.StopsRemaining++
		}
		plannedMin += s.LegTimeMin
	}

	if withWindow > 0 {
		m.OnTimePct = float64(onTime) / float64(withWindow) * 100
	} else if m.StopsDelivered > 0 {
		m.OnTimePct = 100
	}

	// Drift: elapsed time against the planned travel time, once under way.
	if route.CalculatedAt != nil && route.Status == domain.RouteEmAndamento {
		elapsed := time.Since(*route.CalculatedAt).Minutes()
		done := m.StopsDelivered
		total := done + m.StopsRemaining
		if total > 0 && done > 0 {
			expected := plannedMin * float64(done) / float64(total)
			m.EtaDriftMin = elapsed - expected
		}
	}
	return m
}

// emit persists the history record and fans the event out. History append
// failures are logged, not fatal: the live stream must not depend on the
// audit trail.
func (t *Tracker) emit(ctx context.Context, e domain.StatusEvent) {
	if err := t.history.Append(ctx, &e); err != nil {
		t.logger.Warn().Err(err).Str("route_id", e.RouteID).Msg("failed to append status history")
	}
	t.publisher.Publish(e)
}
