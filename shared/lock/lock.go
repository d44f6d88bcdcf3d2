// Package lock provides a Redis backed mutex shared by every replica of the
// service.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrEmptyLockKey = errors.New("lock key must not be empty")

type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisLocker runs critical sections under a redsync mutex.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *zap.Logger
}

func NewRedisLocker(client goredislib.UniversalClient, opts Options, logger *zap.Logger) *RedisLocker {
	if opts.Expiry <= 0 {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// WithLock holds the lock named key while fn runs. fn's error is returned
// unchanged.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyLockKey
	}
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Error("failed to release lock",
				zap.String("key", key), zap.Bool("unlocked", ok), zap.Error(err))
		}
	}()
	return fn(ctx)
}
