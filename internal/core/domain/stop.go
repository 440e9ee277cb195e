package domain

import "time"

// Priority classifies how urgently a stop must be visited.
type Priority string

const (
	PriorityAlta  Priority = "ALTA"
	PriorityMedia Priority = "MEDIA"
	PriorityBaixa Priority = "BAIXA"
)

// DeliveryStatus represents the lifecycle state of a single stop.
type DeliveryStatus string

const (
	StopPendente   DeliveryStatus = "PENDENTE"
	StopEmTransito DeliveryStatus = "EM_TRANSITO"
	StopChegou     DeliveryStatus = "CHEGOU"
	StopEntregue   DeliveryStatus = "ENTREGUE"
	StopFalha      DeliveryStatus = "FALHA"
	StopPulado     DeliveryStatus = "PULADO"
	StopCancelado  DeliveryStatus = "CANCELADO"
)

// validStopTransitions defines the allowed delivery state machine transitions.
// CANCELADO is reachable from every non-terminal state; terminal states have
// no outgoing edges.
var validStopTransitions = map[DeliveryStatus][]DeliveryStatus{
	StopPendente:   {StopEmTransito, StopPulado, StopCancelado},
	StopEmTransito: {StopChegou, StopPulado, StopCancelado},
	StopChegou:     {StopEntregue, StopFalha, StopPulado, StopCancelado},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range validStopTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case StopEntregue, StopFalha, StopPulado, StopCancelado:
		return true
	}
	return false
}

// FailureReason qualifies a FALHA outcome.
type FailureReason string

const (
	FailureClienteAusente        FailureReason = "CLIENTE_AUSENTE"
	FailureEnderecoNaoEncontrado FailureReason = "ENDERECO_NAO_ENCONTRADO"
	FailureRecusado              FailureReason = "RECUSADO"
	FailureAvaria                FailureReason = "AVARIA"
	FailureOutro                 FailureReason = "OUTRO"
)

// ValidFailureReason reports whether r is one of the enumerated reasons.
func ValidFailureReason(r FailureReason) bool {
	switch r {
	case FailureClienteAusente, FailureEnderecoNaoEncontrado, FailureRecusado, FailureAvaria, FailureOutro:
		return true
	}
	return false
}

// Coordinates represents a geographic point (WGS 84).
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether the coordinates are within WGS 84 bounds.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// TimeWindow is a half-open [Start, End) delivery window in minutes-of-day.
type TimeWindow struct {
	StartMin int `json:"start_min" bson:"start_min"`
	EndMin   int `json:"end_min" bson:"end_min"`
}

// EndOfDayMin is the window end assumed for stops without a time window.
const EndOfDayMin = 24 * 60

// Load is the physical footprint a stop occupies in a vehicle.
type Load struct {
	WeightKg float64  `json:"weight_kg" bson:"weight_kg"`
	Volumes  int      `json:"volumes" bson:"volumes"`
	CubicM   *float64 `json:"cubic_m,omitempty" bson:"cubic_m,omitempty"`
}

// Address describes the physical location of a stop.
type Address struct {
	Street  string `json:"street" bson:"street"`
	Number  string `json:"number" bson:"number"`
	City    string `json:"city" bson:"city"`
	ZipCode string `json:"zip_code" bson:"zip_code"`
}

// Stop is a single delivery location, owned by at most one route at a time.
type Stop struct {
	ID            string         `json:"id" bson:"_id,omitempty"`
	OrgID         string         `json:"org_id" bson:"org_id"`
	RouteID       string         `json:"route_id,omitempty" bson:"route_id,omitempty"`
	Coordinates   Coordinates    `json:"coordinates" bson:"coordinates"`
	Address       Address        `json:"address" bson:"address"`
	Priority      Priority       `json:"priority" bson:"priority"`
	Window        *TimeWindow    `json:"window,omitempty" bson:"window,omitempty"`
	Load          Load           `json:"load" bson:"load"`
	ZoneID        string         `json:"zone_id,omitempty" bson:"zone_id,omitempty"`
	Status        DeliveryStatus `json:"status" bson:"status"`
	FailureReason FailureReason  `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	Sequence      int            `json:"sequence" bson:"sequence"`
	LegDistanceKm float64        `json:"leg_distance_km" bson:"leg_distance_km"`
	LegTimeMin    float64        `json:"leg_time_min" bson:"leg_time_min"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
}

// WindowEnd returns the effective window end used for urgency ordering.
// A stop without a window sorts as if its window closed at end of day.
func (s *Stop) WindowEnd() int {
	if s.Window == nil {
		return EndOfDayMin
	}
	return s.Window.EndMin
}
