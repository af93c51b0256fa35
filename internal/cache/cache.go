package cache

import (
	"context"
	"time"
)

// Cache is a small JSON value cache; the models endpoint uses it so
// catalog polling does not re-walk the registry on every request.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
