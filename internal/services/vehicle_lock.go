package services

import (
	"context"
	"sync"
	"time"

	"fleetops/internal/repositories/interfaces"
	"fleetops/internal/utils"

	"github.com/google/uuid"
)

// VehicleLocker serializes trip creation per vehicle so the open-trip
// existence check and the insert happen under mutual exclusion. Without it,
// two concurrent start requests can both pass the check; the partial unique
// index is the storage-level backstop.
type VehicleLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// redisVehicleLocker takes a short-lived SetNX lock per vehicle. The TTL
// bounds how long a crashed holder can block the vehicle.
type redisVehicleLocker struct {
	cache interfaces.Cache
}

func NewRedisVehicleLocker(cache interfaces.Cache) VehicleLocker {
	return &redisVehicleLocker{cache: cache}
}

func (l *redisVehicleLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := utils.CacheVehicleLockPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(utils.VehicleLockWait)

	for {
		ok, err := l.cache.SetNX(ctx, lockKey, token, utils.VehicleLockTTL)
		if err != nil {
			return nil, NewInternalError("failed to acquire vehicle lock", err)
		}
		if ok {
			return func() {
				// The lease may have expired and been re-acquired while the
				// holder was still working; only delete a lock we still own.
				rctx := context.Background()
				var current string
				if err := l.cache.Get(rctx, lockKey, &current); err != nil || current != token {
					return
				}
				l.cache.Delete(rctx, lockKey)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, NewConflictError(
				"VEHICLE_BUSY",
				"another trip operation is in progress for this vehicle",
				map[string]string{"vehicle": key},
			)
		}

		select {
		case <-ctx.Done():
			return nil, NewInternalError("cancelled while waiting for vehicle lock", ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// localVehicleLocker is the single-process fallback used when Redis is not
// configured.
type localVehicleLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalVehicleLocker() VehicleLocker {
	return &localVehicleLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *localVehicleLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
