package job_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

type MockTaskEnqueuer struct {
	mock.Mock
}

func (m *MockTaskEnqueuer) Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error {
	return m.Called(ctx, payload, len(opts)).Error(0)
}

func quiet() job.AdapterOption {
	return job.WithAdapterLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQueueAdapter(t *testing.T) {
	t.Parallel()

	t.Run("nil enqueuer", func(t *testing.T) {
		t.Parallel()
		_, err := job.NewQueueAdapter(nil)
		assert.ErrorIs(t, err, job.ErrEnqueuerNil)
	})

	t.Run("invalid job is rejected before enqueue", func(t *testing.T) {
		t.Parallel()
		e := new(MockTaskEnqueuer)
		defer e.AssertExpectations(t)

		a, err := job.NewQueueAdapter(e, quiet())
		require.NoError(t, err)
		assert.ErrorIs(t, a.Enqueue(context.Background(), job.Job{}), job.ErrInvalidJob)
	})

	t.Run("passes job and options", func(t *testing.T) {
		t.Parallel()
		e := new(MockTaskEnqueuer)
		j := job.Job{Handler: "PostsMailer", Action: "published"}
		e.On("Enqueue", mock.Anything, j, 2).Return(nil).Once()
		defer e.AssertExpectations(t)

		a, err := job.NewQueueAdapter(e, quiet())
		require.NoError(t, err)
		require.NoError(t, a.Enqueue(context.Background(), j, job.WithDelay(time.Minute)))
	})

	t.Run("wraps backend errors", func(t *testing.T) {
		t.Parallel()
		e := new(MockTaskEnqueuer)
		down := errors.New("down")
		e.On("Enqueue", mock.Anything, mock.Anything, 1).Return(down).Once()

		a, err := job.NewQueueAdapterFromConfig(e, job.Config{Queue: "mail"}, quiet())
		require.NoError(t, err)
		err = a.Enqueue(context.Background(), job.Job{Handler: "H", Action: "a"})
		assert.ErrorIs(t, err, down)
		assert.Contains(t, err.Error(), "H#a")
	})
}

func TestQueueRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(storage)
	require.NoError(t, err)
	adapter, err := job.NewQueueAdapter(enq, quiet())
	require.NoError(t, err)

	performer := &recordingPerformer{name: "PostsNotifier"}
	handler, err := job.NewTaskHandler(job.NewRegistry(performer))
	require.NoError(t, err)

	sent := job.Job{
		Handler: "PostsNotifier",
		Action:  "published",
		Params:  job.Params{"profile": "p1"},
		Args:    job.NewArgs("post-1", job.Kwargs{"urgent": true}),
	}
	require.NoError(t, adapter.Enqueue(ctx, sent))

	tasks := storage.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, job.DefaultQueue, tasks[0].Queue)
	assert.Equal(t, handler.Name(), tasks[0].TaskName)

	worker, err := queue.NewWorker(storage,
		queue.WithQueues(job.DefaultQueue),
		queue.WithWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	require.NoError(t, worker.RegisterHandler(handler))
	require.NoError(t, worker.ProcessNext(ctx))

	require.Len(t, performer.jobs, 1)
	got := performer.jobs[0]
	assert.Equal(t, "published", got.Action)
	assert.Equal(t, "p1", got.Params.String("profile"))
	assert.Equal(t, []any{"post-1"}, got.Args.Positional)
	assert.Equal(t, true, got.Args.Keywords["urgent"])
}
