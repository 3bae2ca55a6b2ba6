package job

import (
	"context"
	"time"
)

// DefaultQueue is the queue deferred deliveries go to unless configured otherwise.
const DefaultQueue = "notifiers"

// Job is the serializable descriptor of a deferred delivery. Payload, when
// set, is an already built notification; performers deliver it as is
// instead of running Action again.
type Job struct {
	Handler string         `json:"handler"`
	Action  string         `json:"action"`
	Params  Params         `json:"params,omitempty"`
	Args    Args           `json:"args"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Validate checks that the descriptor can be routed.
func (j Job) Validate() error {
	if j.Handler == "" || j.Action == "" {
		return ErrInvalidJob
	}
	return nil
}

// Enqueuer hands jobs to an external queue. Implementations must return
// without waiting for the job to run.
type Enqueuer interface {
	Enqueue(ctx context.Context, j Job, opts ...EnqueueOption) error
}

// EnqueuerFunc adapts a function to the Enqueuer interface.
type EnqueuerFunc func(ctx context.Context, j Job, opts ...EnqueueOption) error

// Enqueue calls f.
func (f EnqueuerFunc) Enqueue(ctx context.Context, j Job, opts ...EnqueueOption) error {
	return f(ctx, j, opts...)
}

// EnqueueOptions are per-call hints for the queue backend.
type EnqueueOptions struct {
	Queue string
	Delay time.Duration
	At    *time.Time
}

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*EnqueueOptions)

// WithQueue routes the job to a named queue.
func WithQueue(name string) EnqueueOption {
	return func(o *EnqueueOptions) {
		if name != "" {
			o.Queue = name
		}
	}
}

// WithDelay postpones execution by d.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) {
		if d > 0 {
			o.Delay = d
		}
	}
}

// WithScheduledAt runs the job no earlier than t.
func WithScheduledAt(t time.Time) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.At = &t
	}
}

// ApplyEnqueueOptions folds opts into an EnqueueOptions value.
func ApplyEnqueueOptions(opts ...EnqueueOption) EnqueueOptions {
	var o EnqueueOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
