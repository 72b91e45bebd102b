// Package lock serialises work per key, across replicas when redis is
// configured and within the process otherwise.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/billing/pkg/config"
)

var ErrNotAcquired = errors.New("lock: not acquired")

// Locker acquires an exclusive lock on key. The returned function releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// TokenKey is the lock key guarding a user's token balance.
func TokenKey(userID string) string {
	return "tokens:" + userID
}

// RedisLocker is backed by a redsync mutex per key.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
	logger *zap.SugaredLogger
}

func NewRedisLocker(rdb *goredislib.Client, expiry time.Duration, tries int, l *zap.SugaredLogger) *RedisLocker {
	return &RedisLocker{rs: redsync.New(goredis.NewPool(rdb)), expiry: expiry, tries: tries, logger: l}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	m := r.rs.NewMutex(key, redsync.WithExpiry(r.expiry), redsync.WithTries(r.tries))
	if err := m.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}
	return func() {
		// The caller's ctx may already be done; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), r.expiry)
		defer cancel()
		if _, err := m.UnlockContext(ctx); err != nil {
			r.logger.Warnw("lock_release_failed", "key", key, "err", err)
		}
	}, nil
}

// LocalLocker is a keyed mutex that honours context cancellation.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: map[string]*slot{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// New picks the redsync locker when a redis client is available.
func New(l *zap.SugaredLogger, cfg *cfgpkg.Config, rdb *goredislib.Client) Locker {
	if rdb == nil {
		l.Infow("using process-local locks")
		return NewLocalLocker()
	}
	return NewRedisLocker(rdb, cfg.Token.LockTTL, cfg.Token.LockTries, l)
}

var Module = fx.Options(
	fx.Provide(New),
)
