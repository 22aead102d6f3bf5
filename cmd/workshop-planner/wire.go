package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"workshop-planner/internal/app/notify"
	"workshop-planner/internal/app/planning"
	"workshop-planner/internal/common/config"
	"workshop-planner/internal/common/db"
	"workshop-planner/internal/common/lock"
	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/common/mq"
	"workshop-planner/internal/repository"
	"workshop-planner/internal/scheduler"
)

type deps struct {
	db      *db.Conn
	rdb     *redis.Client
	mq      *mq.Client
	plans   *repository.Plans
	planner *scheduler.Planner
}

// wire connects storage, the run lock and the broker.
// A broker that cannot be reached only disables notifications.
func wire(ctx context.Context, cfg config.App, lg *logger.Logger) (*deps, error) {
	d := &deps{}
	conn, err := db.Connect(ctx, cfg.Database, lg)
	if err != nil {
		return nil, err
	}
	d.db = conn
	if err := conn.EnsureSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}

	var locker lock.Locker
	switch cfg.Lock.Backend {
	case "redis":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		d.rdb = redis.NewClient(opts)
		if err := d.rdb.Ping(ctx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		locker = lock.NewRedis(d.rdb, cfg.Lock.TTL, lg)
	case "postgres":
		locker = lock.NewPostgres(conn.Pool, lg)
	default:
		locker = lock.NewMemory()
	}

	scfg, err := scheduler.ConfigFrom(cfg.Planning)
	if err != nil {
		d.Close()
		return nil, err
	}
	opts := []scheduler.Option{scheduler.WithLogger(lg)}
	if client, err := dialMQ(cfg, ""); err != nil {
		lg.Warn("notifications_disabled", map[string]any{"error": err.Error()})
	} else {
		d.mq = client
		opts = append(opts, scheduler.WithNotifier(notify.NewPublisher(client, cfg.Rabbit.Exchange, lg)))
	}

	d.plans = repository.NewPlans(conn.Pool)
	d.planner = scheduler.NewPlanner(scfg,
		repository.NewOrders(conn.Pool),
		repository.NewEmployees(conn.Pool),
		d.plans,
		locker,
		opts...,
	)
	lg.Info("dependencies_ready", map[string]any{"lock_backend": cfg.Lock.Backend, "notify": d.mq != nil})
	return d, nil
}

func (d *deps) checks() map[string]planning.Check {
	c := map[string]planning.Check{
		"postgres": func(ctx context.Context) error { return d.db.Ping(ctx) },
	}
	if d.rdb != nil {
		c["redis"] = func(ctx context.Context) error { return d.rdb.Ping(ctx).Err() }
	}
	if d.mq != nil {
		c["rabbitmq"] = func(context.Context) error { return d.mq.Ping() }
	}
	return c
}

func (d *deps) Close() {
	if d.mq != nil {
		d.mq.Close()
	}
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	d.db.Close()
}

func dialMQ(cfg config.App, queue string) (*mq.Client, error) {
	client, err := mq.Dial(cfg.Rabbit)
	if err != nil {
		return nil, err
	}
	if err := client.DeclarePlanning(cfg.Rabbit.Exchange, queue); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
