// Package queue stores deferred delivery jobs and runs them on workers.
//
// Two components talk to storage through small repository interfaces:
//
//   - Enqueuer adds one-time tasks, optionally delayed
//   - Worker claims pending tasks and hands them to a registered Handler
//
// Storage backends shipped with the package:
//
//   - MemoryStorage for tests and local development
//   - RedisStorage backed by go-redis (sorted sets for readiness, JSON task records)
//   - PostgresStorage backed by pgx, claiming with FOR UPDATE SKIP LOCKED
//
// Retries and the dead letter queue are properties of the backend; callers
// that enqueue deliveries never retry on their own.
//
// # Usage
//
//	storage := queue.NewMemoryStorage()
//	defer storage.Close()
//
//	enq, _ := queue.NewEnqueuer(storage, queue.WithDefaultQueue("notifiers"))
//	_ = enq.Enqueue(ctx, SendDigest{UserID: 42}, queue.WithDelay(time.Minute))
//
//	w, _ := queue.NewWorker(storage, queue.WithQueues("notifiers"))
//	_ = w.RegisterHandler(queue.NewTaskHandler(func(ctx context.Context, p SendDigest) error {
//		return digests.Send(ctx, p.UserID)
//	}))
//	_ = w.Start(ctx)
//	defer w.Stop()
//
// Task names default to the payload's qualified type name, so the handler
// created with NewTaskHandler[T] matches tasks enqueued with a T payload.
//
// # Error Handling
//
// Package-level sentinel errors (ErrRepositoryNil, ErrNoHandlers, ...) can be
// checked with errors.Is.
package queue
