package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workshop-planner/internal/common/config"
	"workshop-planner/internal/common/logger"
)

type Conn struct{ *pgxpool.Pool }

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
	pingTTL    = 5 * time.Second
)

// Connect opens the pool and retries the ping until the database answers.
func Connect(ctx context.Context, cfg config.DB, lg *logger.Logger) (*Conn, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	for i := 1; i <= maxRetries; i++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, pcfg)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTTL)
			err = pool.Ping(pctx)
			cancel()
			if err == nil {
				return &Conn{Pool: pool}, nil
			}
			pool.Close()
		}
		lg.Warn("db_connect_retry", map[string]any{"attempt": i, "error": err.Error()})

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}

func (c *Conn) Close() {
	if c != nil && c.Pool != nil {
		c.Pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS card_orders (
	id            TEXT PRIMARY KEY,
	order_number  TEXT NOT NULL,
	card_count    INTEGER,
	priority_code TEXT,
	status        INTEGER NOT NULL,
	order_date    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS card_orders_status_idx ON card_orders (status);

CREATE TABLE IF NOT EXISTS employees (
	id                 TEXT PRIMARY KEY,
	first_name         TEXT NOT NULL,
	last_name          TEXT NOT NULL DEFAULT '',
	work_hours_per_day INTEGER NOT NULL DEFAULT 8,
	active             BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS teams (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL UNIQUE,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS employee_teams (
	employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	team_id     TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	PRIMARY KEY (employee_id, team_id)
);

CREATE TABLE IF NOT EXISTS planning_assignments (
	id               UUID PRIMARY KEY,
	plan_date        DATE NOT NULL,
	work_date        DATE NOT NULL,
	order_id         TEXT NOT NULL,
	order_number     TEXT NOT NULL DEFAULT '',
	employee_id      TEXT NOT NULL,
	stage            TEXT NOT NULL,
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ NOT NULL,
	duration_minutes INTEGER NOT NULL,
	priority_code    TEXT NOT NULL,
	card_count       INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'SCHEDULED',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (end_time > start_time)
);
CREATE INDEX IF NOT EXISTS planning_assignments_plan_date_idx ON planning_assignments (plan_date);
CREATE INDEX IF NOT EXISTS planning_assignments_employee_idx ON planning_assignments (employee_id, start_time);
`

// EnsureSchema creates the planning tables when they are missing.
func (c *Conn) EnsureSchema(ctx context.Context) error {
	if _, err := c.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
