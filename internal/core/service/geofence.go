package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/api/metrics"
	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
	"github.com/rotafacil/fleet-engine/internal/pkg/config"
	"github.com/rotafacil/fleet-engine/internal/pkg/geo"
)

// containment is the remembered state for one (driver, zone) pair.
type containment struct {
	inside      bool
	enteredAt   time.Time
	lastEmitted time.Time // last ENTRADA/SAIDA for debounce
	dwellFired  bool      // TEMPO_EXCEDIDO raised for the current dwell
	touchedAt   time.Time // for TTL eviction
}

// GeofenceEvaluator tests driver positions against their assigned zones and
// emits entry, exit and dwell-exceeded events with boundary-flap debounce.
// Containment state lives in an instance-owned map keyed by driver and zone,
// evicted after stateTTL of inactivity.
type GeofenceEvaluator struct {
	zones  ports.ZoneRepository
	events ports.GeofenceEventRepository
	cfg    config.EngineConfig
	logger zerolog.Logger

	mu        sync.Mutex
	state     map[stateKey]*containment
	lastSweep time.Time
}

type stateKey struct {
	driverID string
	zoneID   string
}

// stateTTL bounds how long a silent (driver, zone) pair stays in memory.
const stateTTL = 2 * time.Hour

func NewGeofenceEvaluator(
	zones ports.ZoneRepository,
	events ports.GeofenceEventRepository,
	cfg config.EngineConfig,
	logger zerolog.Logger,
) *GeofenceEvaluator {
	return &GeofenceEvaluator{
		zones:  zones,
		events: events,
		cfg:    cfg,
		logger: logger,
		state:  make(map[stateKey]*containment),
	}
}

// Evaluate tests one position update against every zone assigned to the
// driver, in zone-declaration order, and appends any emitted events.
// Evaluation is independent per driver and safe to run concurrently.
func (g *GeofenceEvaluator) Evaluate(ctx context.Context, p domain.Position) ([]*domain.GeofenceEvent, error) {
	if !p.Coordinates.Valid() {
		return nil, fmt.Errorf("%w: position out of WGS 84 bounds", domain.ErrValidation)
	}

	zones, err := g.zones.FindByDriver(ctx, p.DriverID)
	if err != nil {
		return nil, err
	}

	var emitted []*domain.GeofenceEvent
	for _, zone := range zones {
		// A zone without geometry never produces a containment decision,
		// and one carrying both a polygon and a circle is ambiguous.
		if !zone.HasGeometry() {
			continue
		}
		if !zone.ValidGeometry() {
			g.logger.Warn().Str("zone_id", zone.ID).Msg("zone defines more than one geometry, skipped")
			continue
		}
		inside, err := g.contains(p.Coordinates, zone)
		if err != nil {
			g.logger.Warn().Err(err).Str("zone_id", zone.ID).Msg("zone geometry rejected")
			continue
		}
		boundaryKm := geo.DistanceToBoundary(p.Coordinates, zone, g.cfg.UrbanFactor)
		if ev := g.apply(p, zone, inside, boundaryKm); ev != nil {
			emitted = append(emitted, ev...)
		}
	}

	for _, ev := range emitted {
		if err := g.events.Append(ctx, ev); err != nil {
			return emitted, fmt.Errorf("geofence: append event: %w", err)
		}
	}
	return emitted, nil
}

func (g *GeofenceEvaluator) contains(p domain.Coordinates, zone *domain.Zone) (bool, error) {
	if zone.Circle != nil {
		return geo.PointInCircle(p, zone.Circle.Center, zone.Circle.RadiusKm, g.cfg.UrbanFactor), nil
	}
	return geo.PointInPolygon(p, zone.Polygon)
}

// apply updates the remembered containment state for the pair and decides
// which events to emit. Flips within the debounce window, or within the
// zone's boundary tolerance band, are suppressed so flapping never
// double-fires.
func (g *GeofenceEvaluator) apply(p domain.Position, zone *domain.Zone, inside bool, boundaryKm float64) []*domain.GeofenceEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.maybeSweep(p.Timestamp)

	key := stateKey{driverID: p.DriverID, zoneID: zone.ID}
	st, known := g.state[key]
	if !known {
		st = &containment{}
		g.state[key] = st
	}
	st.touchedAt = p.Timestamp

	debounce := time.Duration(zone.Alerts.DebounceSec) * time.Second
	if debounce <= 0 {
		debounce = time.Duration(g.cfg.DebounceSec) * time.Second
	}

	var out []*domain.GeofenceEvent

	if inside != st.inside {
		if known && zone.Alerts.ToleranceKm > 0 && boundaryKm < zone.Alerts.ToleranceKm {
			// Within the tolerance band the containment decision is too close
			// to call; keep the remembered side until the driver clears it.
			g.logger.Debug().
				Str("driver_id", p.DriverID).
				Str("zone_id", zone.ID).
				Float64("boundary_km", boundaryKm).
				Msg("geofence flip within boundary tolerance")
			return nil
		}
		if known && !st.lastEmitted.IsZero() && p.Timestamp.Sub(st.lastEmitted) < debounce {
			// Boundary flap inside the window: remember nothing, emit nothing.
			metrics.GeofenceDebouncedTotal.Inc()
			g.logger.Debug().
				Str("driver_id", p.DriverID).
				Str("zone_id", zone.ID).
				Msg("geofence flip debounced")
			return nil
		}
		st.inside = inside
		if inside {
			st.enteredAt = p.Timestamp
			st.dwellFired = false
			if zone.Alerts.OnEntry {
				out = append(out, g.newEvent(p, zone, domain.GeofenceEntrada, boundaryKm, nil))
			}
		} else if zone.Alerts.OnExit {
			out = append(out, g.newEvent(p, zone, domain.GeofenceSaida, boundaryKm, nil))
		}
		// The debounce window arms off emitted events only; a flip the zone's
		// toggles silenced must not suppress the next one.
		if len(out) > 0 {
			st.lastEmitted = p.Timestamp
		}
		return out
	}

	// No flip: check dwell while inside.
	if inside && zone.Alerts.OnDwell && !st.dwellFired && !st.enteredAt.IsZero() {
		limit := zone.Alerts.DwellLimitMin
		if limit <= 0 {
			limit = g.cfg.DwellLimitMin
		}
		dwell := p.Timestamp.Sub(st.enteredAt)
		if dwell >= time.Duration(limit)*time.Minute {
			st.dwellFired = true // once per continuous dwell
			minutes := dwell.Minutes()
			out = append(out, g.newEvent(p, zone, domain.GeofenceTempoExcedido, boundaryKm, &minutes))
		}
	}
	return out
}

func (g *GeofenceEvaluator) newEvent(p domain.Position, zone *domain.Zone, t domain.GeofenceEventType, boundaryKm float64, dwellMin *float64) *domain.GeofenceEvent {
	return &domain.GeofenceEvent{
		DriverID:     p.DriverID,
		ZoneID:       zone.ID,
		Type:         t,
		Position:     p.Coordinates,
		BoundaryKm:   boundaryKm,
		Timestamp:    p.Timestamp,
		DwellMinutes: dwellMin,
	}
}

// maybeSweep drops pairs idle past stateTTL. Runs lazily, at most once per
// TTL interval, under the state lock.
func (g *GeofenceEvaluator) maybeSweep(now time.Time) {
	if now.Sub(g.lastSweep) < stateTTL {
		return
	}
	g.lastSweep = now
	for key, st := range g.state {
		if now.Sub(st.touchedAt) > stateTTL {
			delete(g.state, key)
		}
	}
}
