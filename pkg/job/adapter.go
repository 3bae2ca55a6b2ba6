package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// TaskEnqueuer is the subset of queue.Enqueuer used by QueueAdapter.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// QueueAdapter stores jobs as queue tasks.
type QueueAdapter struct {
	enqueuer TaskEnqueuer
	queue    string
	logger   *slog.Logger
}

// AdapterOption configures a QueueAdapter.
type AdapterOption func(*QueueAdapter)

// WithDefaultQueue sets the queue used when a call does not pick one.
func WithDefaultQueue(name string) AdapterOption {
	return func(a *QueueAdapter) {
		if name != "" {
			a.queue = name
		}
	}
}

// WithAdapterLogger sets the logger for the adapter.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(a *QueueAdapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewQueueAdapter wraps a queue enqueuer. Jobs go to DefaultQueue unless
// WithDefaultQueue or a per-call WithQueue says otherwise.
func NewQueueAdapter(e TaskEnqueuer, opts ...AdapterOption) (*QueueAdapter, error) {
	if e == nil {
		return nil, ErrEnqueuerNil
	}

	a := &QueueAdapter{
		enqueuer: e,
		queue:    DefaultQueue,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewQueueAdapterFromConfig builds an adapter using cfg.Queue as the default queue.
func NewQueueAdapterFromConfig(e TaskEnqueuer, cfg Config, opts ...AdapterOption) (*QueueAdapter, error) {
	return NewQueueAdapter(e, append([]AdapterOption{WithDefaultQueue(cfg.Queue)}, opts...)...)
}

// Enqueue implements Enqueuer.
func (a *QueueAdapter) Enqueue(ctx context.Context, j Job, opts ...EnqueueOption) error {
	if err := j.Validate(); err != nil {
		return err
	}

	o := ApplyEnqueueOptions(opts...)
	if o.Queue == "" {
		o.Queue = a.queue
	}

	qopts := []queue.EnqueueOption{queue.WithQueue(o.Queue)}
	switch {
	case o.At != nil:
		qopts = append(qopts, queue.WithScheduledAt(*o.At))
	case o.Delay > 0:
		qopts = append(qopts, queue.WithDelay(o.Delay))
	}

	if err := a.enqueuer.Enqueue(ctx, j, qopts...); err != nil {
		return fmt.Errorf("job: enqueue %s#%s: %w", j.Handler, j.Action, err)
	}

	a.logger.LogAttrs(ctx, slog.LevelDebug, "delivery job enqueued",
		logger.HandlerName(j.Handler),
		logger.Action(j.Action),
		logger.Queue(o.Queue),
	)
	return nil
}

// Inline performs jobs synchronously instead of queueing them.
type Inline struct {
	registry *Registry
}

// NewInline creates an Enqueuer that performs jobs through reg on the calling goroutine.
func NewInline(reg *Registry) (*Inline, error) {
	if reg == nil {
		return nil, ErrRegistryNil
	}
	return &Inline{registry: reg}, nil
}

// Enqueue performs j immediately; enqueue options are ignored.
func (i *Inline) Enqueue(ctx context.Context, j Job, _ ...EnqueueOption) error {
	return i.registry.Perform(ctx, j)
}

// NewTaskHandler returns a queue handler that performs stored jobs through reg.
func NewTaskHandler(reg *Registry) (queue.Handler, error) {
	if reg == nil {
		return nil, ErrRegistryNil
	}
	return queue.NewTaskHandler(func(ctx context.Context, j Job) error {
		return reg.Perform(ctx, j)
	}), nil
}
