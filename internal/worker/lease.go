package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cesargomez89/tubearchive/internal/cache"
)

// ErrRunInProgress is returned when another sync run holds the lease.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// Lease guards that at most one sync run is active. TryAcquire never
// blocks waiting for the holder; it fails with ErrRunInProgress.
type Lease interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}

// LocalLease excludes runs within one process.
type LocalLease struct {
	held atomic.Bool
}

func NewLocalLease() *LocalLease {
	return &LocalLease{}
}

func (l *LocalLease) TryAcquire(_ context.Context) (func(), error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			l.held.Store(false)
		}
	}, nil
}

// RedisLease excludes runs across every process sharing the Redis instance.
type RedisLease struct {
	redis *cache.Redis
	key   string
	ttl   time.Duration
}

func NewRedisLease(r *cache.Redis, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{redis: r, key: key, ttl: ttl}
}

func (l *RedisLease) TryAcquire(ctx context.Context) (func(), error) {
	unlock, err := cache.TryLock(ctx, l.redis, l.key, l.ttl)
	if errors.Is(err, cache.ErrLocked) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	return unlock, nil
}
