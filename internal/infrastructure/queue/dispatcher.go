package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/api/metrics"
	"github.com/rotafacil/fleet-engine/internal/core/domain"
	"github.com/rotafacil/fleet-engine/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes position samples to a fixed set of workers using
// consistent hashing on the driver id, guaranteeing per-driver sample
// ordering. Each sample is recorded by the tracker and then evaluated
// against the driver's geofence zones.
type Dispatcher struct {
	workers  []chan domain.Position
	tracker  ports.TrackerService
	geofence ports.GeofenceService
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, tracker ports.TrackerService, geofence ports.GeofenceService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Position, numWorkers),
		tracker:  tracker,
		geofence: geofence,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Position, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a sample to the worker responsible for its driver.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(p domain.Position) {
	d.workers[d.shardIndex(p.DriverID)] <- p
	metrics.PositionQueueDepth.Set(float64(d.QueueDepth()))
}

// EnqueueBatch enqueues multiple samples preserving per-driver ordering.
func (d *Dispatcher) EnqueueBatch(positions []domain.Position) {
	for _, p := range positions {
		d.Enqueue(p)
	}
}

// QueueDepth returns the number of samples currently buffered across workers.
func (d *Dispatcher) QueueDepth() int {
	depth := 0
	for _, ch := range d.workers {
		depth += len(ch)
	}
	return depth
}

// shardIndex maps a driver id deterministically to a worker index.
func (d *Dispatcher) shardIndex(driverID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(driverID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Position) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			if err := d.tracker.RecordPosition(ctx, p); err != nil {
				d.log.Error().Err(err).
					Str("driver_id", p.DriverID).
					Int("worker_id", id).
					Msg("position ingestion failed")
				metrics.PositionQueueDepth.Set(float64(d.QueueDepth()))
				continue
			}
			metrics.PositionsIngestedTotal.WithLabelValues("recorded").Inc()

			events, err := d.geofence.Evaluate(ctx, p)
			if err != nil {
				d.log.Error().Err(err).
					Str("driver_id", p.DriverID).
					Int("worker_id", id).
					Msg("geofence evaluation failed")
			}
			for _, e := range events {
				metrics.GeofenceEventsTotal.WithLabelValues(string(e.Type)).Inc()
			}
			metrics.PositionQueueDepth.Set(float64(d.QueueDepth()))
		}
	}
}
