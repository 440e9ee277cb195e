package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type timeWindowRequest struct {
	StartMin int `json:"start_min" validate:"gte=0,lt=1440"`
	EndMin   int `json:"end_min"   validate:"gt=0,lte=1440,gtfield=StartMin"`
}

type addressRequest struct {
	Street  string `json:"street"`
	Number  string `json:"number"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

type loadRequest struct {
	WeightKg float64  `json:"weight_kg" validate:"gte=0"`
	Volumes  int      `json:"volumes"   validate:"gte=0"`
	CubicM   *float64 `json:"cubic_m,omitempty"`
}

type newStopRequest struct {
	ID          string             `json:"id"`
	Coordinates coordinatesRequest `json:"coordinates" validate:"required"`
	Address     addressRequest     `json:"address"`
	Priority    string             `json:"priority,omitempty" validate:"omitempty,oneof=ALTA MEDIA BAIXA"`
	Window      *timeWindowRequest `json:"window,omitempty"`
	Load        loadRequest        `json:"load"`
	ZoneID      string             `json:"zone_id,omitempty"`
}

type reoptimizeRequest struct {
	Motivo    string             `json:"motivo" validate:"required,oneof=CANCELAMENTO CLIENTE_AUSENTE ENDERECO_INCORRETO REAGENDAMENTO TRAFEGO_INTENSO ATRASO_ACUMULADO NOVO_PEDIDO_URGENTE"`
	StopID    string             `json:"stop_id,omitempty"`
	NewWindow *timeWindowRequest `json:"new_window,omitempty"`
	NewStop   *newStopRequest    `json:"new_stop,omitempty"`
}

type routeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=RASCUNHO CALCULADA EM_ANDAMENTO PAUSADA FINALIZADA CANCELADA"`
}

// Response-only types owned by the transport layer.
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type coordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type timeWindowResponse struct {
	StartMin int `json:"start_min"`
	EndMin   int `json:"end_min"`
}

type stopResponse struct {
	ID            string              `json:"id"`
	Sequence      int                 `json:"sequence"`
	Coordinates   coordinatesResponse `json:"coordinates"`
	Priority      string              `json:"priority"`
	Window        *timeWindowResponse `json:"window,omitempty"`
	Status        string              `json:"status"`
	FailureReason string              `json:"failure_reason,omitempty"`
	LegDistanceKm float64             `json:"leg_distance_km"`
	LegTimeMin    float64             `json:"leg_time_min"`
	DeliveredAt   *time.Time          `json:"delivered_at,omitempty"`
}

type routeMetricsResponse struct {
	DistanceKm    float64 `json:"distance_km"`
	TravelTimeMin float64 `json:"travel_time_min"`
	FuelLiters    float64 `json:"fuel_liters"`
	CostBRL       float64 `json:"cost_brl"`
}

type routeResponse struct {
	ID           string               `json:"id"`
	DriverID     string               `json:"driver_id,omitempty"`
	Origin       coordinatesResponse  `json:"origin"`
	Status       string               `json:"status"`
	Stops        []stopResponse       `json:"stops"`
	Metrics      routeMetricsResponse `json:"metrics"`
	CalculatedAt *time.Time           `json:"calculated_at,omitempty"`
	FinalizedAt  *time.Time           `json:"finalized_at,omitempty"`
}

type repairResponse struct {
	Motivo       string        `json:"motivo"`
	Action       string        `json:"action"`
	AffectedStop string        `json:"affected_stop,omitempty"`
	Route        routeResponse `json:"route"`
}
