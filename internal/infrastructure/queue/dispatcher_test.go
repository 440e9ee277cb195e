package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

type recordingTracker struct {
	mu        sync.Mutex
	positions []domain.Position
}

func (t *recordingTracker) TransitionRoute(_ context.Context, _ string, _ domain.RouteStatus) (*domain.Route, error) {
	return nil, nil
}

func (t *recordingTracker) TransitionStop(_ context.Context, _ ports.StopTransitionInput) (*domain.Route, error) {
	return nil, nil
}

func (t *recordingTracker) TransitionDriver(_ context.Context, _ ports.DriverTransitionInput) (*domain.Driver, error) {
	return nil, nil
}

func (t *recordingTracker) RecordPosition(_ context.Context, p domain.Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions = append(t.positions, p)
	return nil
}

func (t *recordingTracker) LiveMetrics(_ *domain.Route) domain.LiveMetrics {
	return domain.LiveMetrics{}
}

func (t *recordingTracker) recorded() []domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Position(nil), t.positions...)
}

type noopGeofence struct{}

func (noopGeofence) Evaluate(_ context.Context, _ domain.Position) ([]*domain.GeofenceEvent, error) {
	return nil, nil
}

func positionFor(driverID string, seq int) domain.Position {
	return domain.Position{
		DriverID:    driverID,
		Coordinates: domain.Coordinates{Lat: -23.55, Lng: -46.63},
		Timestamp:   time.Date(2025, 3, 10, 9, 0, seq, 0, time.UTC),
	}
}

func waitForCount(t *testing.T, tracker *recordingTracker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(tracker.recorded()) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d positions, got %d", want, len(tracker.recorded()))
}

func TestDispatcherProcessesEnqueuedPositions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := &recordingTracker{}
	d := NewDispatcher(4, tracker, noopGeofence{}, zerolog.Nop())
	d.Start(ctx)

	for i := 0; i < 10; i++ {
		d.Enqueue(positionFor("driver-1", i))
	}
	waitForCount(t, tracker, 10)
}

func TestDispatcherPreservesPerDriverOrdering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := &recordingTracker{}
	d := NewDispatcher(8, tracker, noopGeofence{}, zerolog.Nop())
	d.Start(ctx)

	const perDriver = 20
	drivers := []string{"driver-a", "driver-b", "driver-c"}
	var batch []domain.Position
	for i := 0; i < perDriver; i++ {
		for _, id := range drivers {
			batch = append(batch, positionFor(id, i))
		}
	}
	d.EnqueueBatch(batch)
	waitForCount(t, tracker, perDriver*len(drivers))

	seen := make(map[string]int)
	for _, p := range tracker.recorded() {
		if got := p.Timestamp.Second(); got != seen[p.DriverID] {
			t.Fatalf("driver %s: expected sample %d next, got %d", p.DriverID, seen[p.DriverID], got)
		}
		seen[p.DriverID]++
	}
}

func TestDispatcherShardIsDeterministic(t *testing.T) {
	d := NewDispatcher(8, &recordingTracker{}, noopGeofence{}, zerolog.Nop())
	for _, id := range []string{"driver-a", "driver-b", ""} {
		first := d.shardIndex(id)
		for i := 0; i < 5; i++ {
			if got := d.shardIndex(id); got != first {
				t.Fatalf("shard for %q changed: %d vs %d", id, first, got)
			}
		}
	}
}

func TestDispatcherDefaultWorkerCount(t *testing.T) {
	d := NewDispatcher(0, &recordingTracker{}, noopGeofence{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}
