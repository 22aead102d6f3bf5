package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workshop-planner/internal/common/logger"
)

// Postgres holds a session advisory lock on a dedicated pooled connection.
type Postgres struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewPostgres(pool *pgxpool.Pool, lg *logger.Logger) *Postgres {
	if lg == nil {
		lg = logger.Discard()
	}
	return &Postgres{pool: pool, log: lg}
}

func (p *Postgres) Acquire(ctx context.Context, name string) (func(), error) {
	key := Key(name)
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn for advisory lock: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("pg_try_advisory_lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, ErrLocked
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if _, err := conn.Exec(rctx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
				p.log.Error("lock_release_failed", err, map[string]any{"key": key})
				// a session lock must not go back to the pool still held
				_ = conn.Conn().Close(rctx)
			}
			conn.Release()
		})
	}, nil
}
