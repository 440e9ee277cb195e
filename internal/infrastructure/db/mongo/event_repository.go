package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const (
	collectionGeofenceEvents = "geofence_events"
	collectionStatusHistory  = "status_history"
)

// GeofenceEventRepository stores containment transitions as an append-only
// collection.
type GeofenceEventRepository struct {
	col *mongo.Collection
}

func NewGeofenceEventRepository(db *mongo.Database) *GeofenceEventRepository {
	return &GeofenceEventRepository{col: db.Collection(collectionGeofenceEvents)}
}

func (r *GeofenceEventRepository) Append(ctx context.Context, e *domain.GeofenceEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *GeofenceEventRepository) ListByDriver(ctx context.Context, driverID string, limit int) ([]*domain.GeofenceEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.col.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*domain.GeofenceEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GeofenceEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

// StatusHistoryRepository is the durable audit trail of status events. The
// engine only appends; nothing reads it back through this process.
type StatusHistoryRepository struct {
	col *mongo.Collection
}

func NewStatusHistoryRepository(db *mongo.Database) *StatusHistoryRepository {
	return &StatusHistoryRepository{col: db.Collection(collectionStatusHistory)}
}

func (r *StatusHistoryRepository) Append(ctx context.Context, e *domain.StatusEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, e)
	return err
}
