package service

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
	"github.com/rotafacil/fleet-engine/internal/pkg/config"
	"github.com/rotafacil/fleet-engine/internal/pkg/geo"
)

// RouteBuilder orders one driver's stops into a visiting sequence. The
// construction is greedy nearest-neighbor with priority and time-window
// ordering as hard pre-constraints: it is deterministic for a fixed input
// order, runs in O(n²), and does not promise a minimum-distance tour.
type RouteBuilder struct {
	cfg    config.EngineConfig
	logger zerolog.Logger
}

func NewRouteBuilder(cfg config.EngineConfig, logger zerolog.Logger) *RouteBuilder {
	return &RouteBuilder{cfg: cfg, logger: logger}
}

// Build produces the visiting order, per-leg metrics and route aggregates.
// The ALTA-priority partition is always consumed before the remainder, even
// when a non-ALTA stop sits closer to the current position.
func (b *RouteBuilder) Build(origin domain.Coordinates, stops []domain.Stop, includeReturn bool) (*ports.BuildResult, error) {
	if len(stops) == 0 {
		return nil, domain.ErrNoStopsToOptimize
	}

	// Pre-sort: ALTA first, then ascending window end. Stable, so the input
	// order remains the tie-break for nearest-neighbor selection.
	sorted := make([]domain.Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := sorted[i].Priority == domain.PriorityAlta, sorted[j].Priority == domain.PriorityAlta
		if hi != hj {
			return hi
		}
		return sorted[i].WindowEnd() < sorted[j].WindowEnd()
	})

	var high, rest []domain.Stop
	for _, s := range sorted {
		if s.Priority == domain.PriorityAlta {
			high = append(high, s)
		} else {
			rest = append(rest, s)
		}
	}

	ordered := make([]domain.Stop, 0, len(sorted))
	pos := origin
	pos = b.appendNearest(&ordered, pos, high)
	b.appendNearest(&ordered, pos, rest)

	var totalKm, travelMin float64
	for i := range ordered {
		ordered[i].Sequence = i + 1
		totalKm += ordered[i].LegDistanceKm
		travelMin += ordered[i].LegTimeMin
	}

	result := &ports.BuildResult{Stops: ordered}
	if includeReturn {
		last := ordered[len(ordered)-1].Coordinates
		result.ReturnLegKm = geo.Distance(last, origin, b.cfg.UrbanFactor)
		result.ReturnLegMin = b.travelTime(result.ReturnLegKm)
		totalKm += result.ReturnLegKm
		travelMin += result.ReturnLegMin
	}

	fuel := 0.0
	if b.cfg.FuelKmPerLiter > 0 {
		fuel = totalKm / b.cfg.FuelKmPerLiter
	}
	result.Metrics = domain.RouteMetrics{
		DistanceKm:    totalKm,
		TravelTimeMin: travelMin + float64(len(ordered))*b.cfg.ServiceTimeMin,
		FuelLiters:    fuel,
		CostBRL:       fuel * b.cfg.FuelPricePerLiter,
	}

	b.logger.Debug().
		Int("stops", len(ordered)).
		Float64("distance_km", result.Metrics.DistanceKm).
		Bool("return_leg", includeReturn).
		Msg("route built")

	return result, nil
}

// Sequence keeps the given visiting order and recomputes per-leg metrics,
// sequence indices and aggregates. Used by repairs that fix an order
// themselves (deferred retries, urgency resequencing).
func (b *RouteBuilder) Sequence(origin domain.Coordinates, stops []domain.Stop, includeReturn bool) (*ports.BuildResult, error) {
	if len(stops) == 0 {
		return nil, domain.ErrNoStopsToOptimize
	}

	ordered := make([]domain.Stop, len(stops))
	copy(ordered, stops)

	pos := origin
	var totalKm, travelMin float64
	for i := range ordered {
		d := geo.Distance(pos, ordered[i].Coordinates, b.cfg.UrbanFactor)
		ordered[i].LegDistanceKm = d
		ordered[i].LegTimeMin = b.travelTime(d)
		ordered[i].Sequence = i + 1
		totalKm += d
		travelMin += ordered[i].LegTimeMin
		pos = ordered[i].Coordinates
	}

	result := &ports.BuildResult{Stops: ordered}
	if includeReturn {
		result.ReturnLegKm = geo.Distance(pos, origin, b.cfg.UrbanFactor)
		result.ReturnLegMin = b.travelTime(result.ReturnLegKm)
		totalKm += result.ReturnLegKm
		travelMin += result.ReturnLegMin
	}

	fuel := 0.0
	if b.cfg.FuelKmPerLiter > 0 {
		fuel = totalKm / b.cfg.FuelKmPerLiter
	}
	result.Metrics = domain.RouteMetrics{
		DistanceKm:    totalKm,
		TravelTimeMin: travelMin + float64(len(ordered))*b.cfg.ServiceTimeMin,
		FuelLiters:    fuel,
		CostBRL:       fuel * b.cfg.FuelPricePerLiter,
	}
	return result, nil
}

// appendNearest consumes the partition via nearest-neighbor selection,
// appending each pick with its leg metrics, and returns the final position.
// Ties keep the earliest stop in the pre-sorted order (strict <).
func (b *RouteBuilder) appendNearest(ordered *[]domain.Stop, pos domain.Coordinates, partition []domain.Stop) domain.Coordinates {
	remaining := make([]domain.Stop, len(partition))
	copy(remaining, partition)

	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Distance(pos, remaining[0].Coordinates, b.cfg.UrbanFactor)
		for i := 1; i < len(remaining); i++ {
			if d := geo.Distance(pos, remaining[i].Coordinates, b.cfg.UrbanFactor); d < bestDist {
				best, bestDist = i, d
			}
		}

		next := remaining[best]
		next.LegDistanceKm = bestDist
		next.LegTimeMin = b.travelTime(bestDist)
		*ordered = append(*ordered, next)
		pos = next.Coordinates
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return pos
}

func (b *RouteBuilder) travelTime(km float64) float64 {
	if b.cfg.AvgSpeedKmh <= 0 {
		return 0
	}
	return km / b.cfg.AvgSpeedKmh * 60
}
