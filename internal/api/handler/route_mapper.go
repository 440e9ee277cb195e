package handler

import (
	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

// --- Request → Domain ---

func toReoptimizationRequest(req reoptimizeRequest) domain.ReoptimizationRequest {
	out := domain.ReoptimizationRequest{
		Motivo: domain.Motivo(req.Motivo),
		StopID: req.StopID,
	}
	if req.NewWindow != nil {
		out.NewWindow = &domain.TimeWindow{
			StartMin: req.NewWindow.StartMin,
			EndMin:   req.NewWindow.EndMin,
		}
	}
	if req.NewStop != nil {
		stop := toStop(*req.NewStop)
		// The urgent-insert repair owns the default priority for new stops,
		// so an unset one passes through empty instead of the MEDIA default.
		stop.Priority = domain.Priority(req.NewStop.Priority)
		out.NewStop = &stop
	}
	return out
}

func toStop(req newStopRequest) domain.Stop {
	s := domain.Stop{
		ID: req.ID,
		Coordinates: domain.Coordinates{
			Lat: req.Coordinates.Lat,
			Lng: req.Coordinates.Lng,
		},
		Address: domain.Address{
			Street:  req.Address.Street,
			Number:  req.Address.Number,
			City:    req.Address.City,
			ZipCode: req.Address.ZipCode,
		},
		Priority: domain.Priority(req.Priority),
		Load: domain.Load{
			WeightKg: req.Load.WeightKg,
			Volumes:  req.Load.Volumes,
			CubicM:   req.Load.CubicM,
		},
		ZoneID: req.ZoneID,
		Status: domain.StopPendente,
	}
	if s.Priority == "" {
		s.Priority = domain.PriorityMedia
	}
	if req.Window != nil {
		s.Window = &domain.TimeWindow{StartMin: req.Window.StartMin, EndMin: req.Window.EndMin}
	}
	return s
}

// --- Domain → HTTP response ---

func toRouteResponse(r *domain.Route) routeResponse {
	stops := make([]stopResponse, len(r.Stops))
	for i, s := range r.Stops {
		stops[i] = toStopResponse(s)
	}
	return routeResponse{
		ID:       r.ID,
		DriverID: r.DriverID,
		Origin:   coordinatesResponse{Lat: r.Origin.Lat, Lng: r.Origin.Lng},
		Status:   string(r.Status),
		Stops:    stops,
		Metrics: routeMetricsResponse{
			DistanceKm:    r.Metrics.DistanceKm,
			TravelTimeMin: r.Metrics.TravelTimeMin,
			FuelLiters:    r.Metrics.FuelLiters,
			CostBRL:       r.Metrics.CostBRL,
		},
		CalculatedAt: r.CalculatedAt,
		FinalizedAt:  r.FinalizedAt,
	}
}

func toStopResponse(s domain.Stop) stopResponse {
	out := stopResponse{
		ID:            s.ID,
		Sequence:      s.Sequence,
		Coordinates:   coordinatesResponse{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng},
		Priority:      string(s.Priority),
		Status:        string(s.Status),
		FailureReason: string(s.FailureReason),
		LegDistanceKm: s.LegDistanceKm,
		LegTimeMin:    s.LegTimeMin,
		DeliveredAt:   s.DeliveredAt,
	}
	if s.Window != nil {
		out.Window = &timeWindowResponse{StartMin: s.Window.StartMin, EndMin: s.Window.EndMin}
	}
	return out
}

func toRepairResponse(r *ports.RepairResult) repairResponse {
	return repairResponse{
		Motivo:       string(r.Motivo),
		Action:       r.Action,
		AffectedStop: r.AffectedStop,
		Route:        toRouteResponse(r.Route),
	}
}
