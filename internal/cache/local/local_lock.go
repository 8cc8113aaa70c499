package local

import (
	"context"
	"sync"
	"time"

	cache "nocturne/internal/cache/iface"
)

// keyLock is a process-local Locker for unit tests and single-node
// deployments. TTL is ignored; the lock lives until released.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyLock creates a process-local per-key lock
func NewKeyLock() cache.Locker {
	return &keyLock{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *keyLock) Acquire(ctx context.Context, key string, ttl time.Duration) (cache.ReleaseFunc, error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()

	release := func(ctx context.Context) error {
		m.Unlock()
		return nil
	}
	return release, nil
}
