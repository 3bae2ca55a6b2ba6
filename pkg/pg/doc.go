// Package pg opens pgx connection pools with retries and runs goose
// migrations, either from a directory on disk or from an embedded fs.FS.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.MigrateFS(ctx, pool, queue.Migrations, "migrations", cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Error helpers such as IsNotFoundError and IsDuplicateKeyError classify pgx
// errors without leaking driver types to callers.
package pg
