package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const collectionRoutes = "routes"

type RouteRepository struct {
	col *mongo.Collection
}

func NewRouteRepository(db *mongo.Database) *RouteRepository {
	return &RouteRepository{col: db.Collection(collectionRoutes)}
}

// FindByID retrieves a route aggregate with its embedded stops.
func (r *RouteRepository) FindByID(ctx context.Context, id string) (*domain.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var route domain.Route
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&route)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRouteNotFound
		}
		return nil, err
	}
	return &route, nil
}

// FindActiveByDriver retrieves the driver's current non-terminal route.
func (r *RouteRepository) FindActiveByDriver(ctx context.Context, driverID string) (*domain.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"driver_id": driverID,
		"status": bson.M{"$nin": bson.A{
			string(domain.RouteFinalizada),
			string(domain.RouteCancelada),
		}},
	}

	var route domain.Route
	err := r.col.FindOne(ctx, filter).Decode(&route)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRouteNotFound
		}
		return nil, err
	}
	return &route, nil
}

// Save upserts the whole aggregate, assigning an id on first save.
func (r *RouteRepository) Save(ctx context.Context, route *domain.Route) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if route.ID == "" {
		route.ID = primitive.NewObjectID().Hex()
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": route.ID}, route, opts)
	return err
}

// EnsureIndexes creates the indexes the engine's queries rely on.
func (r *RouteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "org_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
