package ports

import (
	"context"
	"time"
)

// Cache is a string key/value store with expiration. Get returns ("", nil)
// on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
