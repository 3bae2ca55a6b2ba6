// Package redis connects to Redis with retries and exposes a health check.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := queue.NewRedisStorage(client)
//
// Config is populated from REDIS_* environment variables through pkg/config.
// Errors are sentinel values joined with the underlying go-redis error.
package redis
