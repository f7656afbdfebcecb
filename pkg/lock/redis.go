// Package lock serializes work that must run on one replica at a time,
// such as admin seeding and cron cycles.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	redisclient "github.com/clayhaus/clayhaus-backend/pkg/redis"
)

const defaultTTL = time.Minute

var (
	errNoStore = errors.New("redis client required for lock")
	errNoKey   = errors.New("lock key is required")
)

type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock holds key with a random owner token. The TTL bounds how long a
// crashed holder can block others.
type RedisLock struct {
	store redisStore
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLock(store redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errNoStore
	case key == "":
		return nil, errNoKey
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	won, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if won {
		l.token = token
	}
	return won, nil
}

// Release deletes the key only while it still carries our token, so an
// expired lock taken over by another replica is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	token := l.token
	if token == "" {
		return nil
	}
	l.token = ""

	current, err := l.store.Get(ctx, l.key)
	switch {
	case redisclient.IsNil(err):
		return nil
	case err != nil:
		return fmt.Errorf("read owner of %s: %w", l.key, err)
	case current != token:
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// WithLock calls fn only if l was acquired and reports whether it ran.
// Release runs even when ctx is canceled.
func WithLock(ctx context.Context, l Lock, fn func(ctx context.Context) error) (ran bool, err error) {
	acquired, err := l.Acquire(ctx)
	if err != nil || !acquired {
		return false, err
	}
	defer func() {
		err = multierr.Append(err, l.Release(context.WithoutCancel(ctx)))
	}()
	return true, fn(ctx)
}
