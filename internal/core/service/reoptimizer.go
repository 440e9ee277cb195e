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

// Reoptimizer applies the minimal local repair for a mid-route scenario and
// rebuilds only the affected tail, instead of recomputing the whole route.
// Subscribers of the route get a metrics event after each committed repair.
type Reoptimizer struct {
	routes    ports.RouteRepository
	builder   ports.RouteOptimizer
	publisher ports.Publisher
	logger    zerolog.Logger
}

func NewReoptimizer(routes ports.RouteRepository, builder ports.RouteOptimizer, publisher ports.Publisher, logger zerolog.Logger) *Reoptimizer {
	return &Reoptimizer{
		routes:    routes,
		builder:   builder,
		publisher: publisher,
		logger:    logger,
	}
}

// Reoptimize validates the request, applies the repair for its motivo and
// persists the updated route. Validation failures surface before any
// mutation; repairs only ever touch not-yet-delivered stops.
func (r *Reoptimizer) Reoptimize(ctx context.Context, routeID string, req domain.ReoptimizationRequest) (*ports.RepairResult, error) {
	if !domain.ValidMotivo(req.Motivo) {
		return nil, fmt.Errorf("%w: unknown motivo %q", domain.ErrValidation, req.Motivo)
	}
	if req.Motivo.RequiresStopID() && req.StopID == "" {
		return nil, fmt.Errorf("%w: motivo %s", domain.ErrMissingTarget, req.Motivo)
	}

	routeLocks.Lock(routeID)
	defer routeLocks.Unlock(routeID)

	route, err := r.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: route %s is %s", domain.ErrRouteNotMutable, routeID, route.Status)
	}

	result := &ports.RepairResult{Motivo: req.Motivo, AffectedStop: req.StopID}

	// Repairs that fix an order themselves must keep it through the rebuild;
	// the rest re-run full nearest-neighbor construction on the tail.
	preserveOrder := false

	switch req.Motivo {
	case domain.MotivoCancelamento:
		err = r.repairCancel(route, req.StopID, result)
	case domain.MotivoTrafegoIntenso, domain.MotivoAtrasoAcumulado:
		err = r.repairResequenceByUrgency(route, result)
		preserveOrder = true
	case domain.MotivoClienteAusente:
		err = r.repairDefer(route, req.StopID, result)
		preserveOrder = true
	case domain.MotivoNovoPedidoUrgente:
		err = r.repairInsert(route, req.NewStop, result)
	case domain.MotivoEnderecoIncorreto:
		err = r.repairSkip(route, req.StopID, result)
	case domain.MotivoReagendamento:
		err = r.repairReschedule(route, req.StopID, req.NewWindow, result)
	}
	if err != nil {
		return nil, err
	}

	if result.Action != "noop" {
		if err := r.rebuildTail(route, preserveOrder); err != nil {
			return nil, err
		}
		if err := r.routes.Save(ctx, route); err != nil {
			return nil, fmt.Errorf("reoptimize: save route: %w", err)
		}
		r.publisher.Publish(domain.StatusEvent{
			Type:      domain.EventRouteMetrics,
			RouteID:   route.ID,
			Payload:   route.Metrics,
			Timestamp: time.Now().UTC(),
		})
	}
	result.Route = route

	// Audit line per successful repair.
	r.logger.Info().
		Str("route_id", routeID).
		Str("motivo", string(req.Motivo)).
		Str("stop_id", req.StopID).
		Str("action", result.Action).
		Msg("route repaired")

	return result, nil
}

// repairCancel removes the stop from the route. Cancelling an already absent
// stop is an idempotent no-op, not an error.
func (r *Reoptimizer) repairCancel(route *domain.Route, stopID string, result *ports.RepairResult) error {
	idx := findPending(route, stopID)
	if idx < 0 {
		result.Action = "noop"
		return nil
	}
	route.Stops = append(route.Stops[:idx], route.Stops[idx+1:]...)
	result.Action = "removed"
	return nil
}

// repairResequenceByUrgency reorders the pending tail so the stops whose
// windows close soonest come first; the builder's priority partition still
// applies within the rebuild.
func (r *Reoptimizer) repairResequenceByUrgency(route *domain.Route, result *ports.RepairResult) error {
	pending := route.PendingStops()
	if len(pending) == 0 {
		result.Action = "noop"
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].WindowEnd() < pending[j].WindowEnd()
	})
	replacePending(route, pending)
	result.Action = "resequenced"
	return nil
}

// repairDefer moves the stop to the end of the pending tail for a retry
// later in the shift, leaving all other stops' relative order unchanged.
func (r *Reoptimizer) repairDefer(route *domain.Route, stopID string, result *ports.RepairResult) error {
	idx := findPending(route, stopID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrStopNotFound, stopID)
	}
	deferred := route.Stops[idx]
	route.Stops = append(route.Stops[:idx], route.Stops[idx+1:]...)
	route.Stops = append(route.Stops, deferred)
	result.Action = "deferred"
	return nil
}

// repairInsert adds a new urgent stop; the tail rebuild places it at its
// nearest-neighbor-optimal position. An explicit priority on the new stop is
// kept; only an unset one defaults to ALTA.
func (r *Reoptimizer) repairInsert(route *domain.Route, stop *domain.Stop, result *ports.RepairResult) error {
	if stop == nil {
		return fmt.Errorf("%w: NOVO_PEDIDO_URGENTE requires a new stop", domain.ErrValidation)
	}
	if !stop.Coordinates.Valid() {
		return fmt.Errorf("%w: new stop has invalid coordinates", domain.ErrValidation)
	}
	s := *stop
	s.RouteID = route.ID
	s.Status = domain.StopPendente
	if s.Priority == "" {
		s.Priority = domain.PriorityAlta
	}
	route.Stops = append(route.Stops, s)
	result.AffectedStop = s.ID
	result.Action = "inserted"
	return nil
}

// repairSkip marks the stop PULADO so the rebuild excludes it.
func (r *Reoptimizer) repairSkip(route *domain.Route, stopID string, result *ports.RepairResult) error {
	idx := findPending(route, stopID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrStopNotFound, stopID)
	}
	route.Stops[idx].Status = domain.StopPulado
	result.Action = "skipped"
	return nil
}

// repairReschedule updates the stop's time window.
func (r *Reoptimizer) repairReschedule(route *domain.Route, stopID string, window *domain.TimeWindow, result *ports.RepairResult) error {
	if window == nil {
		return fmt.Errorf("%w: REAGENDAMENTO requires a new time window", domain.ErrValidation)
	}
	if window.StartMin < 0 || window.EndMin > domain.EndOfDayMin || window.StartMin >= window.EndMin {
		return fmt.Errorf("%w: malformed time window [%d, %d)", domain.ErrValidation, window.StartMin, window.EndMin)
	}
	idx := findPending(route, stopID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrStopNotFound, stopID)
	}
	w := *window
	route.Stops[idx].Window = &w
	result.Action = "rescheduled"
	return nil
}

// rebuildTail recomputes the pending tail, resuming from the last completed
// position. Terminal stops keep their historical sequence. With preserveOrder
// the current order is kept and only legs and aggregates are recomputed.
func (r *Reoptimizer) rebuildTail(route *domain.Route, preserveOrder bool) error {
	pending := route.PendingStops()
	if len(pending) == 0 {
		route.Metrics = domain.RouteMetrics{}
		return nil
	}

	var (
		built *ports.BuildResult
		err   error
	)
	if preserveOrder {
		built, err = r.builder.Sequence(route.LastCompletedPosition(), pending, route.IncludeReturn)
	} else {
		built, err = r.builder.Build(route.LastCompletedPosition(), pending, route.IncludeReturn)
	}
	if err != nil {
		return err
	}
	route.Stops = mergeOrdered(route.Stops, built.Stops)
	route.Metrics = built.Metrics
	return nil
}

// findPending locates a non-terminal stop by id; terminal stops are
// immutable and treated as absent.
func findPending(route *domain.Route, stopID string) int {
	for i, s := range route.Stops {
		if s.ID == stopID && !s.Status.IsTerminal() {
			return i
		}
	}
	return -1
}

// replacePending rewrites the non-terminal stops of the route in the given
// order, keeping terminal stops in place at the front.
func replacePending(route *domain.Route, pending []domain.Stop) {
	out := make([]domain.Stop, 0, len(route.Stops))
	for _, s := range route.Stops {
		if s.Status.IsTerminal() {
			out = append(out, s)
		}
	}
	route.Stops = append(out, pending...)
}
