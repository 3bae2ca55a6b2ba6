package queue

import "time"

// Config holds the configuration for queue workers.
type Config struct {
	Queues             []string      `env:"QUEUE_NAMES" envSeparator:"," envDefault:"notifiers"`
	PollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"5s"`
	LockTimeout        time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"10"`
}

// WorkerOptions converts the config into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithQueues(c.Queues...),
		WithPullInterval(c.PollInterval),
		WithLockTimeout(c.LockTimeout),
		WithMaxConcurrentTasks(c.MaxConcurrentTasks),
	}
}
