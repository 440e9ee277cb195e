package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
	"github.com/rotafacil/fleet-engine/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		AvgSpeedKmh:          30,
		FuelKmPerLiter:       10,
		FuelPricePerLiter:    5.80,
		ServiceTimeMin:       5,
		UrbanFactor:          1.0, // straight-line distances keep expectations readable
		DebounceSec:          30,
		DwellLimitMin:        15,
		PositionHistoryLimit: 100,
	}
}

type stubRouteRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Route
	nextID int
}

func newStubRouteRepo() *stubRouteRepo {
	return &stubRouteRepo{byID: make(map[string]*domain.Route)}
}

func (r *stubRouteRepo) FindByID(_ context.Context, id string) (*domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	clone := *route
	clone.Stops = append([]domain.Stop(nil), route.Stops...)
	return &clone, nil
}

func (r *stubRouteRepo) FindActiveByDriver(_ context.Context, driverID string) (*domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, route := range r.byID {
		if route.DriverID == driverID && !route.Status.IsTerminal() {
			clone := *route
			clone.Stops = append([]domain.Stop(nil), route.Stops...)
			return &clone, nil
		}
	}
	return nil, domain.ErrRouteNotFound
}

func (r *stubRouteRepo) Save(_ context.Context, route *domain.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if route.ID == "" {
		r.nextID++
		route.ID = fmt.Sprintf("route-%d", r.nextID)
	}
	clone := *route
	clone.Stops = append([]domain.Stop(nil), route.Stops...)
	r.byID[route.ID] = &clone
	return nil
}

type stubStopRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Stop
}

func newStubStopRepo() *stubStopRepo {
	return &stubStopRepo{byID: make(map[string]*domain.Stop)}
}

func (r *stubStopRepo) FindByID(_ context.Context, id string) (*domain.Stop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrStopNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubStopRepo) FindUnassigned(_ context.Context, orgID string) ([]*domain.Stop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Stop
	for _, s := range r.byID {
		if s.OrgID == orgID && s.RouteID == "" {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubStopRepo) Save(_ context.Context, s *domain.Stop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.byID[s.ID] = &clone
	return nil
}

type stubDriverRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Driver
}

func newStubDriverRepo() *stubDriverRepo {
	return &stubDriverRepo{byID: make(map[string]*domain.Driver)}
}

func (r *stubDriverRepo) FindByID(_ context.Context, id string) (*domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDriverNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *stubDriverRepo) FindEligible(_ context.Context, orgID string) ([]*domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Driver
	for _, d := range r.byID {
		if d.OrgID == orgID {
			clone := *d
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubDriverRepo) Save(_ context.Context, d *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *d
	r.byID[d.ID] = &clone
	return nil
}

type stubZoneRepo struct {
	zones []*domain.Zone
}

func (r *stubZoneRepo) FindByID(_ context.Context, id string) (*domain.Zone, error) {
	for _, z := range r.zones {
		if z.ID == id {
			return z, nil
		}
	}
	return nil, domain.ErrZoneNotFound
}

func (r *stubZoneRepo) FindByDriver(_ context.Context, _ string) ([]*domain.Zone, error) {
	return r.zones, nil
}

type stubGeofenceEventRepo struct {
	mu     sync.Mutex
	events []*domain.GeofenceEvent
}

func (r *stubGeofenceEventRepo) Append(_ context.Context, e *domain.GeofenceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *stubGeofenceEventRepo) ListByDriver(_ context.Context, driverID string, limit int) ([]*domain.GeofenceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.GeofenceEvent
	for _, e := range r.events {
		if e.DriverID == driverID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubHistoryRepo struct {
	mu     sync.Mutex
	events []*domain.StatusEvent
}

func (r *stubHistoryRepo) Append(_ context.Context, e *domain.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type stubPositionStore struct {
	mu     sync.Mutex
	pushed []*domain.Position
	seen   map[string]bool
}

func newStubPositionStore() *stubPositionStore {
	return &stubPositionStore{seen: make(map[string]bool)}
}

func (s *stubPositionStore) Push(_ context.Context, p *domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed = append(s.pushed, p)
	return nil
}

func (s *stubPositionStore) Recent(_ context.Context, driverID string, limit int) ([]*domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Position
	for i := len(s.pushed) - 1; i >= 0 && len(out) < limit; i-- {
		if s.pushed[i].DriverID == driverID {
			out = append(out, s.pushed[i])
		}
	}
	return out, nil
}

func (s *stubPositionStore) Seen(_ context.Context, p *domain.Position) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s:%d", p.DriverID, p.Timestamp.UnixNano())
	if s.seen[key] {
		return true, nil
	}
	s.seen[key] = true
	return false, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (p *stubPublisher) Publish(e domain.StatusEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type stubFleet struct {
	redistributed []string
	result        *ports.DistributionResult
}

func (f *stubFleet) Distribute(_ context.Context, _ string, _ []string) (*ports.DistributionResult, error) {
	return f.result, nil
}

func (f *stubFleet) Suggest(_ context.Context, _ string, _ []string) (*ports.DistributionResult, error) {
	return f.result, nil
}

func (f *stubFleet) Redistribute(_ context.Context, driverID string) (*ports.DistributionResult, error) {
	f.redistributed = append(f.redistributed, driverID)
	if f.result != nil {
		return f.result, nil
	}
	return &ports.DistributionResult{Routes: map[string]*domain.Route{}}, nil
}
