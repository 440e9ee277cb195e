// Package geo provides the great-circle and containment primitives used by
// the route builder and the geofence evaluator. All distances are in
// kilometres.
package geo

import (
	"errors"
	"math"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const earthRadiusKm = 6371.0

// ErrDegeneratePolygon is returned when a polygon has fewer than 3 vertices.
var ErrDegeneratePolygon = errors.New("polygon requires at least 3 vertices")

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b domain.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Distance returns the street-network distance estimate: haversine scaled by
// an urban correction factor (> 1.0) to account for detours versus the
// straight line.
func Distance(a, b domain.Coordinates, urbanFactor float64) float64 {
	if urbanFactor <= 0 {
		urbanFactor = 1.0
	}
	return Haversine(a, b) * urbanFactor
}

// PointInPolygon runs the standard ray-casting parity test. Vertices are
// taken in order; the closing edge back to the first vertex is implicit.
func PointInPolygon(p domain.Coordinates, vertices []domain.Coordinates) (bool, error) {
	if len(vertices) < 3 {
		return false, ErrDegeneratePolygon
	}
	inside := false
	j := len(vertices) - 1
	for i := 0; i < len(vertices); i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			x := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside, nil
}

// PointInCircle reports whether p lies within radiusKm of center, using the
// corrected street distance.
func PointInCircle(p, center domain.Coordinates, radiusKm, urbanFactor float64) bool {
	return Distance(p, center, urbanFactor) <= radiusKm
}

// DistanceToBoundary returns the distance from p to the zone boundary, for
// near-miss reporting. For circles it is |d - r|; for polygons the minimum
// great-circle distance to any edge. Zones without geometry return 0.
func DistanceToBoundary(p domain.Coordinates, zone *domain.Zone, urbanFactor float64) float64 {
	if zone.Circle != nil {
		d := Distance(p, zone.Circle.Center, urbanFactor)
		return math.Abs(d - zone.Circle.RadiusKm)
	}
	if len(zone.Polygon) < 3 {
		return 0
	}
	min := math.MaxFloat64
	j := len(zone.Polygon) - 1
	for i := 0; i < len(zone.Polygon); i++ {
		if d := pointToSegmentKm(p, zone.Polygon[j], zone.Polygon[i]); d < min {
			min = d
		}
		j = i
	}
	return min
}

// pointToSegmentKm approximates the distance from p to segment ab by
// projecting in the lat/lng plane, then measuring the haversine distance to
// the closest point. Adequate at urban zone scale.
func pointToSegmentKm(p, a, b domain.Coordinates) float64 {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	lenSq := dLat*dLat + dLng*dLng
	if lenSq == 0 {
		return Haversine(p, a)
	}
	t := ((p.Lat-a.Lat)*dLat + (p.Lng-a.Lng)*dLng) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := domain.Coordinates{Lat: a.Lat + t*dLat, Lng: a.Lng + t*dLng}
	return Haversine(p, closest)
}
