package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// WorkerRepository is the storage side of a Worker.
type WorkerRepository interface {
	// ClaimTask locks the next ready task of queues for workerID. It returns
	// ErrNoTaskToClaim when nothing is ready.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) error
	// FailTask records errorMsg, bumps the retry count and reschedules the task.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error
	ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error
}

// Worker claims tasks from a repository and hands their payloads to the
// handler registered under the task name. Deferred deliveries arrive here as
// job descriptors.
type Worker struct {
	repo        WorkerRepository
	id          uuid.UUID
	queues      []string
	pollEvery   time.Duration
	lockFor     time.Duration
	concurrency int
	log         *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	stop     context.CancelFunc
	done     chan struct{}
	slots    chan struct{}
	inflight sync.WaitGroup
}

// NewWorker creates a worker. By default it polls the default queue every
// five seconds and runs one task at a time.
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	w := &Worker{
		repo:        repo,
		id:          uuid.New(),
		queues:      []string{DefaultQueueName},
		pollEvery:   5 * time.Second,
		lockFor:     5 * time.Minute,
		concurrency: 1,
		log:         slog.Default(),
		handlers:    make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.slots = make(chan struct{}, w.concurrency)
	w.log = w.log.With(logger.Component("queue.worker"), slog.String("worker_id", w.id.String()))
	return w, nil
}

// ID returns the identifier the worker locks tasks with.
func (w *Worker) ID() uuid.UUID { return w.id }

// RegisterHandler adds handlers keyed by Name, replacing earlier ones.
// Nil handlers are ignored.
func (w *Worker) RegisterHandler(handlers ...Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
	return nil
}

func (w *Worker) handler(name string) (Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[name]
	return h, ok
}

// Start polls in the background until Stop is called or ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.stop != nil:
		return ErrWorkerStarted
	case len(w.handlers) == 0:
		return ErrNoHandlers
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.stop, w.done = cancel, make(chan struct{})
	go w.loop(loopCtx, w.done)

	w.log.LogAttrs(ctx, slog.LevelInfo, "worker started",
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", w.concurrency),
	)
	return nil
}

// Stop ends polling and waits for running tasks to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()

	if stop == nil {
		return ErrWorkerNotStarted
	}
	stop()
	<-done
	w.inflight.Wait()

	w.log.Info("worker stopped")
	return nil
}

// Run returns a function that starts the worker and blocks until ctx is
// done, for use with errgroup-style runners.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

// loop drains ready tasks, then sleeps for the poll interval. Only loop
// adds to inflight, so Stop can wait on it once loop has returned.
func (w *Worker) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		w.drain(ctx)
		timer.Reset(w.pollEvery)
	}
}

func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case w.slots <- struct{}{}:
		default:
			return
		}

		task, err := w.repo.ClaimTask(ctx, w.id, w.queues, w.lockFor)
		if err != nil || task == nil {
			<-w.slots
			if err != nil && !errors.Is(err, ErrNoTaskToClaim) && ctx.Err() == nil {
				w.log.LogAttrs(ctx, slog.LevelError, "claim task failed", logger.Error(err))
			}
			return
		}

		w.inflight.Add(1)
		go func() {
			defer w.inflight.Done()
			defer func() { <-w.slots }()
			_ = w.process(ctx, task)
		}()
	}
}

// ProcessNext claims and runs one task on the calling goroutine. It returns
// ErrNoTaskToClaim when nothing is ready, and the handler's error otherwise.
func (w *Worker) ProcessNext(ctx context.Context) error {
	task, err := w.repo.ClaimTask(ctx, w.id, w.queues, w.lockFor)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrNoTaskToClaim
	}
	return w.process(ctx, task)
}

// process runs task and records the outcome. Bookkeeping uses a context
// that survives Stop so a finished task is never left locked.
func (w *Worker) process(ctx context.Context, task *Task) (err error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	h, ok := w.handler(task.TaskName)
	if !ok {
		return w.deadLetter(ctx, task)
	}

	defer func() {
		if r := recover(); r != nil {
			err = w.fail(ctx, task, fmt.Errorf("panic in task handler: %v", r), time.Since(start))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, w.lockFor)
	defer cancel()

	if err := h.Handle(runCtx, task.Payload); err != nil {
		return w.fail(ctx, task, err, time.Since(start))
	}

	if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}
	w.log.LogAttrs(ctx, slog.LevelInfo, "task completed",
		taskAttrs(task, logger.Duration(time.Since(start)))...,
	)
	return nil
}

// deadLetter parks a task nobody can handle; retrying cannot help until a
// handler for its name is deployed.
func (w *Worker) deadLetter(ctx context.Context, task *Task) error {
	w.log.LogAttrs(ctx, slog.LevelError, "no handler registered for task", taskAttrs(task)...)

	if err := w.repo.FailTask(ctx, task.ID, "no handler registered for task type: "+task.TaskName); err != nil {
		return fmt.Errorf("fail task %s: %w", task.ID, err)
	}
	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		return fmt.Errorf("move task %s to DLQ: %w", task.ID, err)
	}
	return ErrHandlerNotFound
}

// fail records cause and dead-letters the task once its retries are spent.
// It returns cause.
func (w *Worker) fail(ctx context.Context, task *Task, cause error, took time.Duration) error {
	w.log.LogAttrs(ctx, slog.LevelError, "task failed", taskAttrs(task,
		logger.RetryCount(int(task.RetryCount)),
		slog.Int("max_retries", int(task.MaxRetries)),
		logger.Duration(took),
		logger.Error(cause),
	)...)

	if err := w.repo.FailTask(ctx, task.ID, cause.Error()); err != nil {
		return fmt.Errorf("fail task %s: %w", task.ID, err)
	}
	// FailTask has bumped the stored retry count.
	if task.RetryCount+1 < task.MaxRetries {
		return cause
	}
	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		return fmt.Errorf("move task %s to DLQ after %d retries: %w", task.ID, task.MaxRetries, err)
	}
	w.log.LogAttrs(ctx, slog.LevelWarn, "task moved to dead letter queue", taskAttrs(task)...)
	return cause
}

// ExtendLockForTask keeps a long-running task locked for another extension.
func (w *Worker) ExtendLockForTask(ctx context.Context, taskID uuid.UUID, extension time.Duration) error {
	return w.repo.ExtendLock(ctx, taskID, extension)
}

// taskAttrs describes task for logs. A payload holding a delivery job
// descriptor adds its handler and action.
func taskAttrs(task *Task, extra ...slog.Attr) []slog.Attr {
	attrs := []slog.Attr{
		logger.JobID(task.ID.String()),
		logger.Queue(task.Queue),
		slog.String("task", task.TaskName),
	}
	var desc struct {
		Handler string `json:"handler"`
		Action  string `json:"action"`
	}
	if json.Unmarshal(task.Payload, &desc) == nil && desc.Handler != "" {
		attrs = append(attrs, logger.HandlerName(desc.Handler), logger.Action(desc.Action))
	}
	return append(attrs, extra...)
}
