package notifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
	"github.com/dmitrymomot/notifykit/pkg/notifier/notifiertest"
)

type captureDriver struct {
	payloads []notifier.Payload
	err      error
}

func (d *captureDriver) Deliver(_ context.Context, p notifier.Payload) error {
	d.payloads = append(d.payloads, p)
	return d.err
}

type captureEnqueuer struct {
	jobs []job.Job
	opts []job.EnqueueOptions
}

func (e *captureEnqueuer) Enqueue(_ context.Context, j job.Job, opts ...job.EnqueueOption) error {
	e.jobs = append(e.jobs, j)
	e.opts = append(e.opts, job.ApplyEnqueueOptions(opts...))
	return nil
}

func canceled(ctx context.Context, n *notifier.Instance, args job.Args) (*notifier.Notification, error) {
	title, _ := args.At(0)
	return n.Notification(notifier.Payload{
		"body":     "Event " + title.(string) + " has been canceled",
		"identity": n.Params().String("profile"),
	})
}

func newEventsNotifier(t *testing.T) (*notifier.Notifier, *captureDriver, *captureEnqueuer) {
	t.Helper()
	drv := &captureDriver{}
	enq := &captureEnqueuer{}
	app := notifier.New("ApplicationNotifier",
		notifier.WithDriver(drv),
		notifier.WithAsyncAdapter(enq),
	)
	events := app.Subclass("EventsNotifier")
	events.Action("canceled", canceled)
	return events, drv, enq
}

func TestNotifier_NotifyNow(t *testing.T) {
	t.Parallel()

	events, drv, _ := newEventsNotifier(t)
	ctx := context.Background()

	n, err := events.With(job.Params{"profile": "p1"}).Notification(ctx, "canceled", job.NewArgs("Party"))
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "EventsNotifier", n.Owner().Name())
	assert.Equal(t, "canceled", n.Action())

	require.NoError(t, n.NotifyNow(ctx))
	require.Len(t, drv.payloads, 1)
	assert.Equal(t, notifier.Payload{"body": "Event Party has been canceled", "identity": "p1"}, drv.payloads[0])
}

func TestNotifier_NotifyLater(t *testing.T) {
	t.Parallel()

	events, drv, enq := newEventsNotifier(t)
	ctx := context.Background()

	n, err := events.With(job.Params{"profile": "p1"}).Notification(ctx, "canceled", job.NewArgs("Party"))
	require.NoError(t, err)
	require.NoError(t, n.NotifyLater(ctx, job.WithQueue("push")))

	assert.Empty(t, drv.payloads)
	require.Len(t, enq.jobs, 1)
	assert.Equal(t, job.Job{
		Handler: "EventsNotifier",
		Action:  "canceled",
		Params:  job.Params{"profile": "p1"},
		Args:    job.NewArgs("Party"),
		Payload: map[string]any{"body": "Event Party has been canceled", "identity": "p1"},
	}, enq.jobs[0])
	assert.Equal(t, "push", enq.opts[0].Queue)

	// The worker side delivers the enqueued payload now.
	require.NoError(t, events.Perform(ctx, enq.jobs[0]))
	require.Len(t, drv.payloads, 1)
	assert.Equal(t, "p1", drv.payloads[0]["identity"])
}

func TestNotifier_NotifyLaterRunsActionOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	drv := &captureDriver{}
	events := notifier.New("EventsNotifier", notifier.WithDriver(drv))

	var actions, befores, delivers int
	events.Action("canceled", func(ctx context.Context, n *notifier.Instance, args job.Args) (*notifier.Notification, error) {
		actions++
		return canceled(ctx, n, args)
	})
	require.NoError(t, events.BeforeAction("count", func(context.Context, *notifier.Instance) bool {
		befores++
		return true
	}))
	require.NoError(t, events.AfterDeliver("count", func(context.Context, *notifier.Instance) {
		delivers++
	}))

	inline, err := job.NewInline(job.NewRegistry(events))
	require.NoError(t, err)
	events.SetAsyncAdapter(inline)

	n, err := events.Notification(ctx, "canceled", job.NewArgs("Party"))
	require.NoError(t, err)
	require.NoError(t, n.NotifyLater(ctx))

	assert.Equal(t, 1, actions)
	assert.Equal(t, 1, befores)
	assert.Equal(t, 1, delivers)
	require.Len(t, drv.payloads, 1)
	assert.Equal(t, "Event Party has been canceled", drv.payloads[0].Body())
}

func TestNotifier_PerformWithoutPayloadRebuilds(t *testing.T) {
	t.Parallel()

	events, drv, _ := newEventsNotifier(t)
	err := events.Perform(context.Background(), job.Job{
		Handler: "EventsNotifier",
		Action:  "canceled",
		Params:  job.Params{"profile": "p2"},
		Args:    job.NewArgs("Gala"),
	})
	require.NoError(t, err)
	require.Len(t, drv.payloads, 1)
	assert.Equal(t, notifier.Payload{"body": "Event Gala has been canceled", "identity": "p2"}, drv.payloads[0])
}

func TestNotifier_Defaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	app := notifier.New("ApplicationNotifier", notifier.WithDefaults(notifier.Payload{"action": "TAG", "sound": "default"}))
	child := app.Subclass("ChildNotifier")
	child.Default(notifier.Payload{"sound": "bell"})
	child.Action("tick", func(_ context.Context, n *notifier.Instance, _ job.Args) (*notifier.Notification, error) {
		return n.Notification(notifier.Payload{"body": "tick", "action": "OWN"})
	})

	assert.Equal(t, notifier.Payload{"action": "TAG", "sound": "default"}, app.DefaultParams())
	assert.Equal(t, notifier.Payload{"action": "TAG", "sound": "bell"}, child.DefaultParams())

	n, err := child.Notification(ctx, "tick", job.Args{})
	require.NoError(t, err)
	assert.Equal(t, notifier.Payload{"body": "tick", "action": "OWN", "sound": "bell"}, n.Payload)

	t.Run("generator replaces static defaults", func(t *testing.T) {
		grand := child.Subclass("GrandNotifier")
		grand.DefaultFunc(func(i *notifier.Instance) notifier.Payload {
			return notifier.Payload{"identity": i.Params().String("profile")}
		})
		n, err := grand.With(job.Params{"profile": "p9"}).Notification(ctx, "tick", job.Args{})
		require.NoError(t, err)
		assert.Equal(t, notifier.Payload{"body": "tick", "action": "OWN", "identity": "p9"}, n.Payload)
	})
}

func TestNotifier_BodyRequired(t *testing.T) {
	t.Parallel()

	app := notifier.New("App")
	app.Action("empty", func(_ context.Context, n *notifier.Instance, _ job.Args) (*notifier.Notification, error) {
		return n.Notification(notifier.Payload{"body": ""})
	})
	app.Action("missing", func(_ context.Context, n *notifier.Instance, _ job.Args) (*notifier.Notification, error) {
		return n.Notification(notifier.Payload{"title": "x"})
	})

	for _, action := range []string{"empty", "missing"} {
		_, err := app.Notification(context.Background(), action, job.Args{})
		assert.ErrorIs(t, err, notifier.ErrBodyRequired, action)
	}
}

func TestNotifier_Inheritance(t *testing.T) {
	t.Parallel()

	drv := &captureDriver{}
	root := notifier.New("Root")
	child := root.Subclass("Child")

	_, err := child.Driver()
	assert.ErrorIs(t, err, notifier.ErrDriverMissing)
	_, err = child.AsyncAdapter()
	assert.ErrorIs(t, err, notifier.ErrAsyncAdapterMissing)

	root.SetDriver(drv)
	got, err := child.Driver()
	require.NoError(t, err)
	assert.Same(t, drv, got)

	own := &captureDriver{}
	child.SetDriver(own)
	got, err = root.Driver()
	require.NoError(t, err)
	assert.Same(t, drv, got, "subclass override does not leak to parent")

	root.Action("a", canceled)
	child.Action("b", canceled)
	assert.True(t, child.HasAction("a"))
	assert.False(t, root.HasAction("b"))
	assert.Equal(t, []string{"a", "b"}, child.ActionMethods())
	assert.Equal(t, "Root", child.Parent().Name())
	assert.Nil(t, root.Parent())

	_, err = child.Notification(context.Background(), "nope", job.Args{})
	assert.ErrorIs(t, err, job.ErrUnknownAction)
}

func TestNotifier_NilNotification(t *testing.T) {
	t.Parallel()

	app := notifier.New("App")
	app.Action("skip", func(context.Context, *notifier.Instance, job.Args) (*notifier.Notification, error) {
		return nil, nil
	})
	require.NoError(t, app.Perform(context.Background(), job.Job{Handler: "App", Action: "skip"}))
}

func TestNotifier_Modes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()
		_, err := notifier.ParseMode("loud")
		assert.ErrorIs(t, err, notifier.ErrInvalidMode)
		assert.ErrorIs(t, notifier.New("x").SetMode("loud"), notifier.ErrInvalidMode)
		assert.Equal(t, notifier.ModeNormal, notifier.New("x", notifier.WithConfig(notifier.Config{Mode: "loud"})).Mode())
	})

	t.Run("noop drops deliveries", func(t *testing.T) {
		t.Parallel()
		events, drv, enq := newEventsNotifier(t)
		require.NoError(t, events.SetMode(notifier.ModeNoop))

		rctx, rec := notifiertest.Record(ctx)
		n, err := events.Notification(rctx, "canceled", job.NewArgs("Party"))
		require.NoError(t, err)
		require.NoError(t, n.NotifyNow(rctx))
		require.NoError(t, n.NotifyLater(rctx))
		assert.Empty(t, drv.payloads)
		assert.Empty(t, enq.jobs)
		notifiertest.AssertNothingSent(t, rec)
	})

	t.Run("recorder captures deliveries", func(t *testing.T) {
		t.Parallel()
		events, drv, enq := newEventsNotifier(t)

		rctx, rec := notifiertest.Record(ctx)
		n, err := events.With(job.Params{"profile": "p2"}).Notification(rctx, "canceled", job.NewArgs("Gig"))
		require.NoError(t, err)
		require.NoError(t, n.NotifyNow(rctx))
		require.NoError(t, n.NotifyLater(rctx))

		assert.Empty(t, drv.payloads)
		assert.Empty(t, enq.jobs)
		notifiertest.AssertSent(t, rec, "EventsNotifier", notifier.Payload{"body": "Event Gig has been canceled"})
		notifiertest.AssertEnqueued(t, rec, "EventsNotifier", notifier.Payload{"identity": "p2"})
		assert.Equal(t, "p2", rec.Sent()[0].Params["profile"])

		rec.Clear()
		assert.Empty(t, rec.Sent())
	})

	t.Run("test mode without recorder drops", func(t *testing.T) {
		t.Parallel()
		events, drv, _ := newEventsNotifier(t)
		require.NoError(t, events.SetMode(notifier.ModeTest))

		n, err := events.Notification(ctx, "canceled", job.NewArgs("Party"))
		require.NoError(t, err)
		require.NoError(t, n.NotifyNow(ctx))
		assert.Empty(t, drv.payloads)
	})
}

func TestNotifier_DriverError(t *testing.T) {
	t.Parallel()

	events, drv, _ := newEventsNotifier(t)
	drv.err = errors.New("push service down")

	n, err := events.Notification(context.Background(), "canceled", job.NewArgs("Party"))
	require.NoError(t, err)
	assert.ErrorIs(t, n.NotifyNow(context.Background()), drv.err)
}
