package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const collectionStops = "stops"

type StopRepository struct {
	col *mongo.Collection
}

func NewStopRepository(db *mongo.Database) *StopRepository {
	return &StopRepository{col: db.Collection(collectionStops)}
}

func (r *StopRepository) FindByID(ctx context.Context, id string) (*domain.Stop, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Stop
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrStopNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindUnassigned returns the organization's stops without a route owner.
func (r *StopRepository) FindUnassigned(ctx context.Context, orgID string) ([]*domain.Stop, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"org_id": orgID,
		"$or": bson.A{
			bson.M{"route_id": ""},
			bson.M{"route_id": bson.M{"$exists": false}},
		},
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stops []*domain.Stop
	if err := cursor.All(ctx, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

func (r *StopRepository) Save(ctx context.Context, s *domain.Stop) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, opts)
	return err
}
