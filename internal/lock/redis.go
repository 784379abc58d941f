// Package lock provides a short lived distributed mutex shared by every
// replica of the service.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Handle releases a lock obtained by TryLock.
type Handle interface {
	Release(ctx context.Context) error
}

type RedisLocker struct {
	client *redislock.Client
	prefix string
}

func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), prefix: prefix}
}

// TryLock obtains key for ttl without retrying. It returns ok=false when
// another holder owns the key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Handle, bool, error) {
	lk, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("TryLock %s: %w", key, err)
	}
	return &redisHandle{lock: lk}, true, nil
}

type redisHandle struct {
	lock *redislock.Lock
}

func (h *redisHandle) Release(ctx context.Context) error {
	err := h.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// Connect dials addr and verifies the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("lock.Connect: ping %s: %w", addr, err)
	}
	return rdb, nil
}
