package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const collectionZones = "zones"

type ZoneRepository struct {
	col *mongo.Collection
}

func NewZoneRepository(db *mongo.Database) *ZoneRepository {
	return &ZoneRepository{col: db.Collection(collectionZones)}
}

func (r *ZoneRepository) FindByID(ctx context.Context, id string) (*domain.Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var z domain.Zone
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&z)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrZoneNotFound
		}
		return nil, err
	}
	return &z, nil
}

// FindByDriver returns the zones monitoring the driver: zones that list the
// driver explicitly plus zones with no driver list at all.
func (r *ZoneRepository) FindByDriver(ctx context.Context, driverID string) ([]*domain.Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"driver_ids": driverID},
		bson.M{"driver_ids": bson.M{"$exists": false}},
		bson.M{"driver_ids": bson.M{"$size": 0}},
	}}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var zones []*domain.Zone
	if err := cursor.All(ctx, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}
