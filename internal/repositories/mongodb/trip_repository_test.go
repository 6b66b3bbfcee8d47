package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCache struct {
	trips map[string]models.Trip
}

func newStubCache() *stubCache {
	return &stubCache{trips: make(map[string]models.Trip)}
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := s.trips[key]
	if !ok {
		return errors.New("cache miss")
	}
	if t, ok := dest.(*models.Trip); ok {
		*t = v
	}
	return nil
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if t, ok := value.(*models.Trip); ok {
		s.trips[key] = *t
	}
	return nil
}

func (s *stubCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.trips, k)
	}
	return nil
}

func (s *stubCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}

func TestOpenTripCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newStubCache()
	repo := &tripRepository{cache: cache}

	trip := &models.Trip{
		ID:        primitive.NewObjectID(),
		OrgID:     primitive.NewObjectID(),
		VehicleID: primitive.NewObjectID(),
		Status:    models.TripStatusOpen,
	}

	assert.Nil(t, repo.getOpenTripFromCache(ctx, trip.OrgID, trip.VehicleID))

	repo.cacheOpenTrip(ctx, trip)
	got := repo.getOpenTripFromCache(ctx, trip.OrgID, trip.VehicleID)
	require.NotNil(t, got)
	assert.Equal(t, trip.ID, got.ID)

	// mutation paths invalidate the open-trip key
	repo.invalidateTripCache(ctx, trip)
	assert.Nil(t, repo.getOpenTripFromCache(ctx, trip.OrgID, trip.VehicleID))
}

func TestOpenTripCacheNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := &tripRepository{}
	trip := &models.Trip{OrgID: primitive.NewObjectID(), VehicleID: primitive.NewObjectID()}

	repo.cacheOpenTrip(ctx, trip)
	assert.Nil(t, repo.getOpenTripFromCache(ctx, trip.OrgID, trip.VehicleID))
}

func TestOpenTripCacheKeysAreOrgScoped(t *testing.T) {
	ctx := context.Background()
	cache := newStubCache()
	repo := &tripRepository{cache: cache}

	trip := &models.Trip{
		ID:        primitive.NewObjectID(),
		OrgID:     primitive.NewObjectID(),
		VehicleID: primitive.NewObjectID(),
		Status:    models.TripStatusOpen,
	}
	repo.cacheOpenTrip(ctx, trip)

	_, cached := cache.trips[utils.CacheOpenTripPrefix+trip.OrgID.Hex()+":"+trip.VehicleID.Hex()]
	assert.True(t, cached)

	otherOrg := primitive.NewObjectID()
	assert.Nil(t, repo.getOpenTripFromCache(ctx, otherOrg, trip.VehicleID))
}
