package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"workshop-planner/internal/common/logger"
)

const renewScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
	return 0
end`

const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
else
	return 0
end`

// Redis is a lease-based Locker. The lease is renewed every ttl/3 while held,
// so a crashed holder frees the key after at most ttl.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
	log *logger.Logger
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration, lg *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if lg == nil {
		lg = logger.Discard()
	}
	return &Redis{rdb: rdb, ttl: ttl, log: lg}
}

func Key(name string) string { return "lock:" + name }

func (r *Redis) Acquire(ctx context.Context, name string) (func(), error) {
	key := Key(name)
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	hbCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.heartbeat(hbCtx, key, token)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer rcancel()
			if err := r.rdb.Eval(rctx, releaseScript, []string{key}, token).Err(); err != nil {
				r.log.Error("lock_release_failed", err, map[string]any{"key": key})
			}
		})
	}, nil
}

func (r *Redis) heartbeat(ctx context.Context, key, token string) {
	tkr := time.NewTicker(r.ttl / 3)
	defer tkr.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tkr.C:
			n, err := r.rdb.Eval(ctx, renewScript, []string{key}, token, r.ttl.Milliseconds()).Int()
			if err != nil && ctx.Err() == nil {
				r.log.Error("lock_renew_failed", err, map[string]any{"key": key})
				continue
			}
			if err == nil && n == 0 {
				r.log.Warn("lock_lost", map[string]any{"key": key})
				return
			}
		}
	}
}
