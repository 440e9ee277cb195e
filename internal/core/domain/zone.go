package domain

import "time"

// GeofenceEventType enumerates the alerts a zone can raise.
type GeofenceEventType string

const (
	GeofenceEntrada       GeofenceEventType = "ENTRADA"
	GeofenceSaida         GeofenceEventType = "SAIDA"
	GeofenceTempoExcedido GeofenceEventType = "TEMPO_EXCEDIDO"
)

// Circle is a circular zone geometry.
type Circle struct {
	Center   Coordinates `json:"center" bson:"center"`
	RadiusKm float64     `json:"radius_km" bson:"radius_km"`
}

// AlertConfig controls which geofence events a zone raises and how flapping
// near the boundary is suppressed.
type AlertConfig struct {
	OnEntry       bool    `json:"on_entry" bson:"on_entry"`
	OnExit        bool    `json:"on_exit" bson:"on_exit"`
	OnDwell       bool    `json:"on_dwell" bson:"on_dwell"`
	DebounceSec   int     `json:"debounce_sec" bson:"debounce_sec"`
	DwellLimitMin int     `json:"dwell_limit_min" bson:"dwell_limit_min"`
	ToleranceKm   float64 `json:"tolerance_km" bson:"tolerance_km"`
}

// Zone is a geographic boundary used for containment alerts. Exactly one of
// Polygon or Circle must be set; a zone with neither is skipped by the
// evaluator rather than treated as an error. An empty DriverIDs list means
// the zone monitors every driver in the organization.
type Zone struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	OrgID     string        `json:"org_id" bson:"org_id"`
	Name      string        `json:"name" bson:"name"`
	Polygon   []Coordinates `json:"polygon,omitempty" bson:"polygon,omitempty"`
	Circle    *Circle       `json:"circle,omitempty" bson:"circle,omitempty"`
	Alerts    AlertConfig   `json:"alerts" bson:"alerts"`
	DriverIDs []string      `json:"driver_ids,omitempty" bson:"driver_ids,omitempty"`
}

// HasGeometry reports whether the zone defines a usable boundary.
func (z *Zone) HasGeometry() bool {
	return len(z.Polygon) >= 3 || (z.Circle != nil && z.Circle.RadiusKm > 0)
}

// ValidGeometry reports whether the zone defines exactly one geometry.
func (z *Zone) ValidGeometry() bool {
	hasPolygon := len(z.Polygon) > 0
	hasCircle := z.Circle != nil
	if hasPolygon && hasCircle {
		return false
	}
	if hasPolygon && len(z.Polygon) < 3 {
		return false
	}
	return true
}

// GeofenceEvent records a containment transition for a driver and zone.
// Events are append-only; they are never mutated after creation. BoundaryKm
// is the distance from the triggering position to the zone boundary.
type GeofenceEvent struct {
	ID           string            `json:"id" bson:"_id,omitempty"`
	DriverID     string            `json:"driver_id" bson:"driver_id"`
	ZoneID       string            `json:"zone_id" bson:"zone_id"`
	Type         GeofenceEventType `json:"type" bson:"type"`
	Position     Coordinates       `json:"position" bson:"position"`
	BoundaryKm   float64           `json:"boundary_km" bson:"boundary_km"`
	Timestamp    time.Time         `json:"timestamp" bson:"timestamp"`
	DwellMinutes *float64          `json:"dwell_minutes,omitempty" bson:"dwell_minutes,omitempty"`
}
