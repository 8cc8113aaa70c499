package cache

import (
	"context"
	"time"
)

// Cache defines the interface for cache operations (Redis)
type Cache interface {
	// Basic operations
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// SetNX stores a value only when the key is absent (for keyed locks)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Script execution (for atomic lock release)
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)

	// Close connection
	Close() error
}

// ReleaseFunc releases a held lock. Safe to call once; errors are advisory
// since the lock TTL bounds the damage of a lost release.
type ReleaseFunc func(ctx context.Context) error

// Locker serializes writers on a natural key. Upsert's find-then-write
// sequence runs under a per-(category, originalId) lock so two concurrent
// replays of the same sync batch cannot insert duplicate spans.
type Locker interface {
	// Acquire blocks until the key lock is held or ctx is done
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}
