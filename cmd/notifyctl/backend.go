package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/queue"
	"github.com/dmitrymomot/notifykit/pkg/redis"
)

type storage interface {
	queue.EnqueuerRepository
	queue.WorkerRepository
}

// backend is the queue storage selected by QUEUE_BACKEND. The inline
// backend has no storage; jobs are performed on enqueue.
type backend struct {
	name    string
	storage storage
	checks  []func(context.Context) error
	closers []func()
}

func openBackend(ctx context.Context, cfg appConfig) (*backend, error) {
	b := &backend{name: cfg.Backend}

	switch cfg.Backend {
	case backendInline:
	case backendMemory:
		b.storage = queue.NewMemoryStorage()
	case backendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.checks = append(b.checks, redis.Healthcheck(client))
		s, err := queue.NewRedisStorage(client, queue.WithRedisKeyPrefix(cfg.Redis.KeyPrefix))
		if err != nil {
			b.Close()
			return nil, err
		}
		b.storage = s
	case backendPostgres:
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.checks = append(b.checks, pg.Healthcheck(pool))
		s, err := queue.NewPostgresStorage(pool)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.storage = s
	default:
		return nil, fmt.Errorf("unknown queue backend %q (want %s, %s, %s or %s)",
			cfg.Backend, backendInline, backendMemory, backendRedis, backendPostgres)
	}
	return b, nil
}

// enqueuer returns the job.Enqueuer handlers use for deferred delivery.
func (b *backend) enqueuer(reg *job.Registry, cfg job.Config, log *slog.Logger) (job.Enqueuer, error) {
	if b.storage == nil {
		return job.NewInline(reg)
	}
	e, err := queue.NewEnqueuer(b.storage, queue.WithDefaultQueue(cfg.Queue))
	if err != nil {
		return nil, err
	}
	return job.NewQueueAdapterFromConfig(e, cfg, job.WithAdapterLogger(log))
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
