package redis

import (
	"context"
	"fmt"
	"time"

	cache "nocturne/internal/cache/iface"
	"nocturne/internal/logger"

	"github.com/google/uuid"
)

// luaCompareAndDelete releases a lock only when the caller still owns it,
// so a lock that expired and was re-acquired elsewhere is never stolen back
const luaCompareAndDelete = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

const lockRetryInterval = 25 * time.Millisecond

type keyLock struct {
	cache  cache.Cache
	prefix string
	logger logger.Logger
}

// NewKeyLock creates a cache-backed per-key lock. The TTL passed to Acquire
// bounds how long a crashed holder can block other writers.
func NewKeyLock(c cache.Cache, prefix string, log logger.Logger) cache.Locker {
	return &keyLock{
		cache:  c,
		prefix: prefix,
		logger: log.With(logger.String("component", "key_lock")),
	}
}

func (l *keyLock) Acquire(ctx context.Context, key string, ttl time.Duration) (cache.ReleaseFunc, error) {
	lockKey := l.prefix + ":" + key
	token := uuid.New().String()

	for {
		ok, err := l.cache.SetNX(ctx, lockKey, token, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock acquisition cancelled for %s: %w", lockKey, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	release := func(ctx context.Context) error {
		_, err := l.cache.Eval(ctx, luaCompareAndDelete, []string{lockKey}, token)
		if err != nil {
			l.logger.Warn("failed to release lock; TTL will reclaim it",
				logger.String("key", lockKey),
				logger.Error(err))
			return err
		}
		return nil
	}

	return release, nil
}
