package handler

import "time"

// --- Request / Response types ---

type positionRequest struct {
	DriverID    string             `json:"driver_id" validate:"required"`
	RouteID     string             `json:"route_id,omitempty"`
	Coordinates coordinatesRequest `json:"coordinates" validate:"required"`
	Timestamp   time.Time          `json:"timestamp" validate:"required"`
}

type stopStatusRequest struct {
	RouteID       string `json:"route_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=PENDENTE EM_TRANSITO CHEGOU ENTREGUE FALHA PULADO CANCELADO"`
	FailureReason string `json:"failure_reason,omitempty" validate:"omitempty,oneof=CLIENTE_AUSENTE ENDERECO_NAO_ENCONTRADO RECUSADO AVARIA OUTRO"`
}

type driverStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DISPONIVEL EM_ROTA PAUSADO INDISPONIVEL OFFLINE"`
	Reason string `json:"reason,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type driverResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Status          string            `json:"status"`
	StatusReason    string            `json:"status_reason,omitempty"`
	ActiveRouteID   string            `json:"active_route_id,omitempty"`
	LastPosition    *positionResponse `json:"last_position,omitempty"`
	StatusChangedAt time.Time         `json:"status_changed_at"`
}

type positionResponse struct {
	DriverID    string              `json:"driver_id"`
	RouteID     string              `json:"route_id,omitempty"`
	Coordinates coordinatesResponse `json:"coordinates"`
	Timestamp   time.Time           `json:"timestamp"`
}

type geofenceEventResponse struct {
	ID           string              `json:"id"`
	DriverID     string              `json:"driver_id"`
	ZoneID       string              `json:"zone_id"`
	Type         string              `json:"type"`
	Position     coordinatesResponse `json:"position"`
	BoundaryKm   float64             `json:"boundary_km"`
	Timestamp    time.Time           `json:"timestamp"`
	DwellMinutes *float64            `json:"dwell_minutes,omitempty"`
}
