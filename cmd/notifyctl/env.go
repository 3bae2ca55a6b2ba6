package main

import (
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/api"
	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/queue"
	"github.com/dmitrymomot/notifykit/pkg/redis"
)

// Queue backends.
const (
	backendInline   = "inline"
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
)

type appConfig struct {
	Backend string `env:"QUEUE_BACKEND" envDefault:"inline"`

	HTTP     api.Config
	Logger   logger.Config
	Delivery delivery.Config
	Notifier notifier.Config
	Job      job.Config
	Queue    queue.Config
	Email    email.Config
	SMTP     email.SMTPConfig
	Redis    redis.Config
	PG       pg.Config
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		return nil
	}
	return config.LoadEnv(files...)
}

func loadConfig() (appConfig, *slog.Logger, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, nil, err
	}
	log := logger.New(append(cfg.Logger.Options(), logger.WithContextExtractors(delivery.LogExtractor))...)
	logger.SetAsDefault(log)
	return cfg, log, nil
}
