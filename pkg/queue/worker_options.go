package queue

import (
	"log/slog"
	"time"
)

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithQueues sets the queues the worker claims from, in no particular
// order. Empty names are dropped; an empty list keeps the default.
func WithQueues(queues ...string) WorkerOption {
	return func(w *Worker) {
		var names []string
		for _, q := range queues {
			if q != "" {
				names = append(names, q)
			}
		}
		if len(names) > 0 {
			w.queues = names
		}
	}
}

// WithPullInterval sets the pause between polls of an idle queue.
func WithPullInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollEvery = d
		}
	}
}

// WithLockTimeout sets how long a claimed task stays locked. It also bounds
// the handler's run time.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.lockFor = d
		}
	}
}

// WithMaxConcurrentTasks sets how many tasks run at once.
func WithMaxConcurrentTasks(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.log = l
		}
	}
}
