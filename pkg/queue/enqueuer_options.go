package queue

import "time"

// MaxRetryLimit caps the retry budget a task can carry.
const MaxRetryLimit int8 = 10

// taskSpec holds the task attributes options can set. An Enqueuer keeps one
// as its defaults and every Enqueue call starts from a copy.
type taskSpec struct {
	queue      string
	name       string
	priority   Priority
	maxRetries int8
	runAt      func(now time.Time) time.Time
}

func defaultTaskSpec() taskSpec {
	return taskSpec{
		queue:      DefaultQueueName,
		priority:   PriorityDefault,
		maxRetries: 3,
	}
}

func (s taskSpec) scheduledAt(now time.Time) time.Time {
	if s.runAt == nil {
		return now
	}
	return s.runAt(now)
}

func retriesInRange(n int8) bool { return n >= 0 && n <= MaxRetryLimit }

type (
	// EnqueuerOption sets an Enqueuer default.
	EnqueuerOption func(*taskSpec)

	// EnqueueOption overrides a default for one Enqueue call.
	EnqueueOption func(*taskSpec)
)

// WithDefaultQueue sets the queue used when Enqueue does not pick one.
func WithDefaultQueue(queue string) EnqueuerOption {
	return func(s *taskSpec) {
		if queue != "" {
			s.queue = queue
		}
	}
}

// WithDefaultPriority sets the priority of new tasks. Out of range values are ignored.
func WithDefaultPriority(priority Priority) EnqueuerOption {
	return func(s *taskSpec) {
		if priority.Valid() {
			s.priority = priority
		}
	}
}

// WithDefaultMaxRetries sets the retry budget of new tasks, 0 to MaxRetryLimit.
func WithDefaultMaxRetries(n int8) EnqueuerOption {
	return func(s *taskSpec) {
		if retriesInRange(n) {
			s.maxRetries = n
		}
	}
}

// WithQueue routes the task to queue.
func WithQueue(queue string) EnqueueOption {
	return func(s *taskSpec) {
		if queue != "" {
			s.queue = queue
		}
	}
}

// WithPriority sets the task priority. Enqueue rejects invalid values.
func WithPriority(priority Priority) EnqueueOption {
	return func(s *taskSpec) { s.priority = priority }
}

// WithMaxRetries sets the retry budget, 0 to MaxRetryLimit.
func WithMaxRetries(n int8) EnqueueOption {
	return func(s *taskSpec) {
		if retriesInRange(n) {
			s.maxRetries = n
		}
	}
}

// WithDelay makes the task claimable only after d.
func WithDelay(d time.Duration) EnqueueOption {
	return func(s *taskSpec) {
		if d > 0 {
			s.runAt = func(now time.Time) time.Time { return now.Add(d) }
		}
	}
}

// WithScheduledAt makes the task claimable from t on.
func WithScheduledAt(t time.Time) EnqueueOption {
	return func(s *taskSpec) {
		s.runAt = func(time.Time) time.Time { return t }
	}
}

// WithTaskName overrides the task name derived from the payload type.
// Workers route tasks to handlers by this name.
func WithTaskName(name string) EnqueueOption {
	return func(s *taskSpec) {
		if name != "" {
			s.name = name
		}
	}
}
