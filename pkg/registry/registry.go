package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/fleetlive/fleetlive/pkg/database"
	"github.com/fleetlive/fleetlive/pkg/redis_client"
	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
)

const cacheExpiration = 15 * time.Minute

// Registry answers reference-data lookups for vehicles, drivers and routes.
// Reads go through a redis cache in front of MongoDB; status updates write
// to MongoDB and invalidate the cached record.
type Registry struct {
	cache *cache.Cache[string]
}

func NewRegistry() *Registry {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(cacheExpiration))

	return &Registry{
		cache: cache.New[string](redisStore),
	}
}

func (r *Registry) Vehicle(ctx context.Context, identifier string) (*transit.Vehicle, error) {
	var vehicle *transit.Vehicle
	if ok := r.cachedRecord(ctx, cacheKey("vehicle", identifier), &vehicle); ok {
		return vehicle, nil
	}

	vehiclesCollection := database.GetCollection("vehicles")
	err := vehiclesCollection.FindOne(ctx, bson.M{"primaryidentifier": identifier}).Decode(&vehicle)
	if err != nil {
		return nil, transit.NotFoundError{Resource: "Vehicle", Identifier: identifier}
	}

	r.storeRecord(ctx, cacheKey("vehicle", identifier), vehicle)

	return vehicle, nil
}

func (r *Registry) Driver(ctx context.Context, identifier string) (*transit.Driver, error) {
	var driver *transit.Driver
	if ok := r.cachedRecord(ctx, cacheKey("driver", identifier), &driver); ok {
		return driver, nil
	}

	driversCollection := database.GetCollection("drivers")
	err := driversCollection.FindOne(ctx, bson.M{"primaryidentifier": identifier}).Decode(&driver)
	if err != nil {
		return nil, transit.NotFoundError{Resource: "Driver", Identifier: identifier}
	}

	r.storeRecord(ctx, cacheKey("driver", identifier), driver)

	return driver, nil
}

func (r *Registry) Route(ctx context.Context, identifier string) (*transit.Route, error) {
	var route *transit.Route
	if ok := r.cachedRecord(ctx, cacheKey("route", identifier), &route); ok {
		return route, nil
	}

	routesCollection := database.GetCollection("routes")
	err := routesCollection.FindOne(ctx, bson.M{"primaryidentifier": identifier}).Decode(&route)
	if err != nil {
		return nil, transit.NotFoundError{Resource: "Route", Identifier: identifier}
	}

	r.storeRecord(ctx, cacheKey("route", identifier), route)

	return route, nil
}

// VehicleForDriver returns the vehicle currently assigned to a driver.
func (r *Registry) VehicleForDriver(ctx context.Context, driverRef string) (*transit.Vehicle, error) {
	var vehicle *transit.Vehicle

	vehiclesCollection := database.GetCollection("vehicles")
	err := vehiclesCollection.FindOne(ctx, bson.M{"driverref": driverRef}).Decode(&vehicle)
	if err != nil {
		return nil, transit.NotFoundError{Resource: "Vehicle", Identifier: fmt.Sprintf("driver=%s", driverRef)}
	}

	return vehicle, nil
}

// ActiveVehicles returns all active vehicles, optionally limited to one
// route.
func (r *Registry) ActiveVehicles(ctx context.Context, routeRef string) ([]transit.Vehicle, error) {
	filter := bson.M{"status": transit.StatusActive}
	if routeRef != "" {
		filter["routeref"] = routeRef
	}

	vehiclesCollection := database.GetCollection("vehicles")
	cursor, err := vehiclesCollection.Find(ctx, filter)
	if err != nil {
		return nil, transit.TransientStoreError{Operation: "vehicle lookup", Err: err}
	}

	var vehicles []transit.Vehicle
	for cursor.Next(ctx) {
		var vehicle transit.Vehicle
		if err := cursor.Decode(&vehicle); err != nil {
			log.Error().Err(err).Msg("Failed to decode Vehicle")
			continue
		}

		vehicles = append(vehicles, vehicle)
	}

	return vehicles, nil
}

func (r *Registry) ActiveRoutes(ctx context.Context) ([]transit.Route, error) {
	routesCollection := database.GetCollection("routes")
	cursor, err := routesCollection.Find(ctx, bson.M{"status": transit.StatusActive})
	if err != nil {
		return nil, transit.TransientStoreError{Operation: "route lookup", Err: err}
	}

	var routes []transit.Route
	for cursor.Next(ctx) {
		var route transit.Route
		if err := cursor.Decode(&route); err != nil {
			log.Error().Err(err).Msg("Failed to decode Route")
			continue
		}

		routes = append(routes, route)
	}

	return routes, nil
}

func (r *Registry) UpdateVehicleStatus(ctx context.Context, identifier string, status transit.Status) error {
	vehiclesCollection := database.GetCollection("vehicles")
	result, err := vehiclesCollection.UpdateOne(ctx,
		bson.M{"primaryidentifier": identifier},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return transit.TransientStoreError{Operation: "vehicle status update", Err: err}
	}

	if result.MatchedCount == 0 {
		return transit.NotFoundError{Resource: "Vehicle", Identifier: identifier}
	}

	r.cache.Delete(ctx, cacheKey("vehicle", identifier))

	return nil
}

func (r *Registry) UpdateDriverStatus(ctx context.Context, identifier string, status transit.Status) error {
	driversCollection := database.GetCollection("drivers")
	result, err := driversCollection.UpdateOne(ctx,
		bson.M{"primaryidentifier": identifier},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return transit.TransientStoreError{Operation: "driver status update", Err: err}
	}

	if result.MatchedCount == 0 {
		return transit.NotFoundError{Resource: "Driver", Identifier: identifier}
	}

	r.cache.Delete(ctx, cacheKey("driver", identifier))

	return nil
}

func (r *Registry) cachedRecord(ctx context.Context, key string, record interface{}) bool {
	cachedValue, err := r.cache.Get(ctx, key)
	if err != nil || cachedValue == "" {
		return false
	}

	return json.Unmarshal([]byte(cachedValue), record) == nil
}

func (r *Registry) storeRecord(ctx context.Context, key string, record interface{}) {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, key, string(recordJSON)); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Failed to cache registry record")
	}
}

func cacheKey(resource string, identifier string) string {
	return fmt.Sprintf("fleetlive/registry/%s/%s", resource, identifier)
}
