package job

// Config holds settings for the queue adapter.
type Config struct {
	Queue string `env:"DELIVERY_QUEUE" envDefault:"notifiers"`
}
