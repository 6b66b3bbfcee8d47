package mongodb

import (
	"context"
	"fmt"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type tripRepository struct {
	collection *mongo.Collection
	cache      interfaces.Cache
}

func NewTripRepository(db *mongo.Database, cache interfaces.Cache) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection("trips"),
		cache:      cache,
	}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	trip.ID = primitive.NewObjectID()
	trip.Revision = 1
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		// The partial unique index on (org_id, vehicle_id, status=open) is
		// the only unique index on this collection.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vehicle %s: %w", trip.VehicleID.Hex(), interfaces.ErrOpenTripExists)
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}

	r.invalidateTripCache(ctx, trip)
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, orgID, id primitive.ObjectID) (*models.Trip, error) {
	if trip := r.getTripFromCache(ctx, id.Hex()); trip != nil && trip.OrgID == orgID {
		return trip, nil
	}

	filter := bson.M{
		"_id":        id,
		"org_id":     orgID,
		"is_deleted": bson.M{"$ne": true},
	}

	var trip models.Trip
	err := r.collection.FindOne(ctx, filter).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	if trip.Status == models.TripStatusOpen {
		r.cacheTrip(ctx, &trip)
	}

	return &trip, nil
}

func (r *tripRepository) Replace(ctx context.Context, trip *models.Trip) error {
	readRevision := trip.Revision
	trip.Revision = readRevision + 1
	trip.UpdatedAt = time.Now()

	filter := bson.M{
		"_id":      trip.ID,
		"org_id":   trip.OrgID,
		"revision": readRevision,
	}

	result, err := r.collection.ReplaceOne(ctx, filter, trip)
	if err != nil {
		trip.Revision = readRevision
		// Reopening a trip (clearing ended_at) can collide with another open
		// trip on the same vehicle through the partial unique index.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vehicle %s: %w", trip.VehicleID.Hex(), interfaces.ErrOpenTripExists)
		}
		return fmt.Errorf("failed to replace trip: %w", err)
	}
	if result.MatchedCount == 0 {
		trip.Revision = readRevision
		return interfaces.ErrStaleRevision
	}

	r.invalidateTripCache(ctx, trip)
	return nil
}

func (r *tripRepository) FindOpenByVehicle(ctx context.Context, orgID, vehicleID primitive.ObjectID) (*models.Trip, error) {
	if trip := r.getOpenTripFromCache(ctx, orgID, vehicleID); trip != nil {
		return trip, nil
	}

	filter := bson.M{
		"org_id":     orgID,
		"vehicle_id": vehicleID,
		"is_deleted": bson.M{"$ne": true},
		// Records written before the status field existed carry neither
		// status nor ended_at while open.
		"$or": []bson.M{
			{"status": models.TripStatusOpen},
			{"status": bson.M{"$exists": false}, "ended_at": nil},
		},
	}

	var trip models.Trip
	err := r.collection.FindOne(ctx, filter).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open trip: %w", err)
	}

	r.cacheOpenTrip(ctx, &trip)
	return &trip, nil
}

func (r *tripRepository) FindLastClosedByVehicle(ctx context.Context, orgID, vehicleID, exclude primitive.ObjectID) (*models.Trip, error) {
	filter := bson.M{
		"org_id":     orgID,
		"vehicle_id": vehicleID,
		"is_deleted": bson.M{"$ne": true},
		"status":     bson.M{"$ne": models.TripStatusCancelled},
		"ended_at":   bson.M{"$ne": nil},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	opts := options.FindOne().SetSort(bson.D{
		{Key: "ended_at", Value: -1},
		{Key: "created_at", Value: -1},
	})

	var trip models.Trip
	err := r.collection.FindOne(ctx, filter, opts).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find last closed trip: %w", err)
	}

	return &trip, nil
}

func (r *tripRepository) ListByVehicle(ctx context.Context, orgID, vehicleID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	query := bson.M{
		"org_id":     orgID,
		"vehicle_id": vehicleID,
		"is_deleted": bson.M{"$ne": true},
	}
	applyTripFilter(query, filter)
	return r.findTripsWithFilter(ctx, query, params)
}

func (r *tripRepository) ListByDriver(ctx context.Context, orgID, driverID primitive.ObjectID, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	query := bson.M{
		"org_id":     orgID,
		"driver_id":  driverID,
		"is_deleted": bson.M{"$ne": true},
	}
	applyTripFilter(query, filter)
	return r.findTripsWithFilter(ctx, query, params)
}

func (r *tripRepository) GetTripStats(ctx context.Context, orgID primitive.ObjectID, startDate, endDate time.Time) (map[string]interface{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"org_id":     orgID,
			"is_deleted": bson.M{"$ne": true},
			"started_at": bson.M{
				"$gte": startDate,
				"$lte": endDate,
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$status",
			"count":          bson.M{"$sum": 1},
			"total_distance": bson.M{"$sum": "$distance_km"},
			"avg_distance":   bson.M{"$avg": "$distance_km"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := make(map[string]interface{})
	var totalTrips int64

	for cursor.Next(ctx) {
		var result struct {
			ID            models.TripStatus `bson:"_id"`
			Count         int64             `bson:"count"`
			TotalDistance float64           `bson:"total_distance"`
			AvgDistance   float64           `bson:"avg_distance"`
		}

		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode trip stats: %w", err)
		}

		stats[string(result.ID)] = map[string]interface{}{
			"count":          result.Count,
			"total_distance": result.TotalDistance,
			"avg_distance":   result.AvgDistance,
		}

		totalTrips += result.Count
	}

	stats["summary"] = map[string]interface{}{
		"total_trips": totalTrips,
		"start_date":  startDate,
		"end_date":    endDate,
	}

	return stats, nil
}

// Helper methods

func applyTripFilter(query bson.M, filter *interfaces.TripFilter) {
	if filter == nil {
		return
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Purpose != nil {
		query["purpose"] = *filter.Purpose
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	if filter.From != nil || filter.To != nil {
		dateRange := bson.M{}
		if filter.From != nil {
			dateRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			dateRange["$lte"] = *filter.To
		}
		query["started_at"] = dateRange
	}
}

func (r *tripRepository) findTripsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	opts := params.GetSortOptions()
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	for cursor.Next(ctx) {
		var trip models.Trip
		if err := cursor.Decode(&trip); err != nil {
			return nil, 0, fmt.Errorf("failed to decode trip: %w", err)
		}
		trips = append(trips, &trip)
	}

	return trips, total, nil
}

// Cache operations

func (r *tripRepository) cacheTrip(ctx context.Context, trip *models.Trip) {
	if r.cache != nil {
		cacheKey := utils.CacheTripPrefix + trip.ID.Hex()
		r.cache.Set(ctx, cacheKey, trip, 15*time.Minute)
	}
}

func (r *tripRepository) getTripFromCache(ctx context.Context, tripID string) *models.Trip {
	if r.cache == nil {
		return nil
	}

	cacheKey := utils.CacheTripPrefix + tripID
	var trip models.Trip
	if err := r.cache.Get(ctx, cacheKey, &trip); err != nil {
		return nil
	}

	return &trip
}

func (r *tripRepository) cacheOpenTrip(ctx context.Context, trip *models.Trip) {
	if r.cache != nil {
		key := utils.CacheOpenTripPrefix + trip.OrgID.Hex() + ":" + trip.VehicleID.Hex()
		// Short TTL; every mutation path also invalidates the key.
		r.cache.Set(ctx, key, trip, 5*time.Minute)
	}
}

func (r *tripRepository) getOpenTripFromCache(ctx context.Context, orgID, vehicleID primitive.ObjectID) *models.Trip {
	if r.cache == nil {
		return nil
	}

	key := utils.CacheOpenTripPrefix + orgID.Hex() + ":" + vehicleID.Hex()
	var trip models.Trip
	if err := r.cache.Get(ctx, key, &trip); err != nil {
		return nil
	}

	return &trip
}

func (r *tripRepository) invalidateTripCache(ctx context.Context, trip *models.Trip) {
	if r.cache != nil {
		r.cache.Delete(ctx,
			utils.CacheTripPrefix+trip.ID.Hex(),
			utils.CacheOpenTripPrefix+trip.OrgID.Hex()+":"+trip.VehicleID.Hex(),
		)
	}
}
