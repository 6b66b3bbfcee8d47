package interfaces

import (
	"context"
	"time"
)

// Cache is the slice of the cache layer the repositories use. A nil Cache is
// valid; repositories skip caching entirely.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}
