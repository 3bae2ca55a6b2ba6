package queue_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// Runs against a live server only when REDIS_URL is set.
func TestRedisStorage(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	prefix := "test-" + uuid.NewString()
	storage, err := queue.NewRedisStorage(client, queue.WithRedisKeyPrefix(prefix))
	require.NoError(t, err)

	low := newTask("q", queue.PriorityLow, time.Now().Add(-time.Second))
	high := newTask("q", queue.PriorityHigh, time.Now().Add(-time.Second))
	require.NoError(t, storage.CreateTask(ctx, low))
	require.NoError(t, storage.CreateTask(ctx, high))

	claimed, err := storage.ClaimTask(ctx, uuid.New(), []string{"q"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, high.ID, claimed.ID)
	require.NoError(t, storage.CompleteTask(ctx, high.ID))

	claimed, err = storage.ClaimTask(ctx, uuid.New(), []string{"q"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, low.ID, claimed.ID)
	require.NoError(t, storage.FailTask(ctx, low.ID, "boom"))
	require.NoError(t, storage.MoveToDLQ(ctx, low.ID))

	dead, err := storage.DeadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "boom", dead[0].Error)

	_, err = storage.ClaimTask(ctx, uuid.New(), []string{"q"}, time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
}

func TestNewRedisStorage_NilClient(t *testing.T) {
	t.Parallel()
	_, err := queue.NewRedisStorage(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
}

func TestNewPostgresStorage_NilConn(t *testing.T) {
	t.Parallel()
	_, err := queue.NewPostgresStorage(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()
	entries, err := queue.Migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
