package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the PostgreSQL queue schema",
	Long: "Applies the embedded queue migrations to PG_CONN_URL. When PG_MIGRATIONS_PATH " +
		"is set, migrations are read from that directory instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return err
		}
		defer pool.Close()

		log = log.With(logger.Component("migrate"))
		if cfg.PG.MigrationsPath != "" {
			return pg.Migrate(ctx, pool, cfg.PG, log)
		}
		return pg.MigrateFS(ctx, pool, queue.Migrations, "migrations", cfg.PG.MigrationsTable, log)
	},
}
