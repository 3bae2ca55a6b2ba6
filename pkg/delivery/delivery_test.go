package delivery_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

func TestNotify_FansOutDeferredPerLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	err := events.With(job.Params{"profile": "P"}).Notify(context.Background(), "canceled", "event-1")
	require.NoError(t, err)

	want := job.Job{
		Action: "canceled",
		Params: job.Params{"profile": "P"},
		Args:   job.Args{Positional: []any{"event-1"}},
	}

	mailJobs := f.mailJobs.Jobs()
	require.Len(t, mailJobs, 1)
	want.Handler = "EventsMailer"
	assert.Equal(t, want, mailJobs[0])

	pushJobs := f.pushJobs.Jobs()
	require.Len(t, pushJobs, 1)
	want.Handler = "EventsNotifier"
	want.Payload = map[string]any{"body": "canceled: event-1"}
	assert.Equal(t, want, pushJobs[0])

	assert.Empty(t, f.Emails(), "deferred delivery must not send now")
	assert.Empty(t, f.Pushes())
}

func TestNotify_SkipsLinesWithoutAction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	require.NoError(t, events.Notify(context.Background(), "reminded", "event-1"))

	assert.Len(t, f.mailJobs.Jobs(), 1)
	assert.Empty(t, f.pushJobs.Jobs(), "EventsNotifier has no reminded action")
}

func TestNotify_UnresolvedLinesAreSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	other := f.base.Subclass("OtherDelivery")

	require.NoError(t, other.Notify(context.Background(), "canceled", "x"))
	require.NoError(t, other.NotifyNow(context.Background(), "canceled", "x"))
	assert.Empty(t, f.mailJobs.Jobs())
	assert.Empty(t, f.pushJobs.Jobs())
	assert.Empty(t, f.Emails())
}

func TestNotifyNow_DeliversImmediately(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	err := events.With(job.Params{"email": "ann@example.com"}).NotifyNow(context.Background(), "canceled", "meetup")
	require.NoError(t, err)

	assert.Empty(t, f.mailJobs.Jobs(), "enqueue primitive must not be used")
	assert.Empty(t, f.pushJobs.Jobs())

	emails := f.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "ann@example.com", emails[0].SendTo)
	assert.Equal(t, "canceled: meetup", emails[0].Subject)

	pushes := f.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "canceled: meetup", pushes[0].Body())
}

func TestNotify_KeywordArguments(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	require.NoError(t, events.Notify(context.Background(), "canceled", "e1", job.Kwargs{"reason": "rain"}, "e2"))

	jobs := f.mailJobs.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, []any{"e1", "e2"}, jobs[0].Args.Positional)
	assert.Equal(t, map[string]any{"reason": "rain"}, jobs[0].Args.Keywords)
}

func TestNotify_EnqueueOptions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	d := events.With(nil).WithEnqueueOptions(job.WithQueue("urgent"), job.WithDelay(time.Minute))
	require.NoError(t, d.Notify(context.Background(), "canceled", "e1"))

	require.Len(t, f.mailJobs.opts, 1)
	assert.Equal(t, "urgent", f.mailJobs.opts[0].Queue)
	assert.Equal(t, time.Minute, f.mailJobs.opts[0].Delay)
	require.Len(t, f.pushJobs.opts, 1)
	assert.Equal(t, "urgent", f.pushJobs.opts[0].Queue)
}

func TestNotify_FailureIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	boom := errors.New("queue down")
	f.mailJobs.err = boom
	events := f.base.Subclass("EventsDelivery")

	err := events.Notify(context.Background(), "canceled", "e1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "delivery line mailer")
	assert.Len(t, f.pushJobs.Jobs(), 1, "notifier line still runs after the mailer line failed")
}

func TestNotify_ValidationFailurePropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.notifier.Action("canceled", func(_ context.Context, n *notifier.Instance, _ job.Args) (*notifier.Notification, error) {
		return n.Notification(notifier.Payload{"title": "no body"})
	})
	events := f.base.Subclass("EventsDelivery")

	err := events.NotifyNow(context.Background(), "canceled", "e1")
	assert.ErrorIs(t, err, notifier.ErrBodyRequired)
	assert.Len(t, f.Emails(), 1)
}

func TestWith_FreezesParams(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	params := job.Params{"profile": "P"}
	d := events.With(params)
	params["profile"] = "changed"

	assert.Equal(t, job.Params{"profile": "P"}, d.Params())
	got := d.Params()
	got["profile"] = "mutated"
	assert.Equal(t, "P", d.Params().String("profile"))
	assert.Same(t, events, d.Class())
	assert.Empty(t, f.mailJobs.Jobs(), "With must not dispatch")
}

func TestStrictMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, delivery.WithConfig(delivery.Config{CacheClasses: true, RequireDeclaredActions: true}))
	events := f.base.Subclass("EventsDelivery")

	err := events.Notify(context.Background(), "canceled", "e1")
	assert.ErrorIs(t, err, delivery.ErrUndeclaredAction)
	assert.Empty(t, f.mailJobs.Jobs())

	_, err = events.Action("canceled")
	assert.ErrorIs(t, err, delivery.ErrUndeclaredAction)

	events.Delivers("canceled")
	require.NoError(t, events.Notify(context.Background(), "canceled", "e1"))
	assert.Len(t, f.mailJobs.Jobs(), 1)

	child := events.Subclass("admin.EventsDelivery")
	assert.True(t, child.Declares("canceled"), "declared actions are inherited")
}

func TestAction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	t.Run("dynamic action supported by a line", func(t *testing.T) {
		a, err := events.With(job.Params{"profile": "P"}).Action("canceled")
		require.NoError(t, err)
		assert.Equal(t, "canceled", a.Name())
		require.NoError(t, a.Notify(context.Background(), "e1"))
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := events.Action("exploded")
		assert.ErrorIs(t, err, delivery.ErrUndeclaredAction)
	})

	t.Run("declared action without handlers", func(t *testing.T) {
		events.Delivers("archived")
		a, err := events.Action("archived")
		require.NoError(t, err)
		require.NoError(t, a.NotifyNow(context.Background()))
	})

	jobs := f.mailJobs.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, job.Params{"profile": "P"}, jobs[0].Params)
	assert.Equal(t, []string{"archived"}, events.Actions())
	assert.True(t, events.Supports("canceled"))
	assert.True(t, events.Supports("archived"))
	assert.False(t, events.Supports("exploded"))
}

func TestObserver(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var events []delivery.Event
	obs := delivery.ObserverFunc(func(_ context.Context, e delivery.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	f := newFixture(t, delivery.WithObserver(obs))
	cls := f.base.Subclass("EventsDelivery")

	require.NoError(t, cls.Notify(context.Background(), "reminded", "e1"))
	require.NoError(t, cls.NotifyNow(context.Background(), "canceled", "e1"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)
	assert.Equal(t, delivery.OutcomeEnqueued, events[0].Outcome)
	assert.Equal(t, "mailer", events[0].Line)
	assert.Equal(t, "EventsMailer", events[0].Handler)
	assert.Equal(t, delivery.OutcomeSkipped, events[1].Outcome)
	assert.Equal(t, "notifier", events[1].Line)
	assert.Equal(t, delivery.OutcomeDelivered, events[2].Outcome)
	assert.True(t, events[2].Sync)
	assert.Equal(t, delivery.OutcomeDelivered, events[3].Outcome)
	assert.Equal(t, "EventsDelivery", events[3].Class)
}

func TestWithMetadata(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	var seen []map[string]any
	require.NoError(t, events.BeforeNotify("capture", func(_ context.Context, r *delivery.Record) bool {
		seen = append(seen, r.Metadata)
		return true
	}))

	d := events.With(nil).WithMetadata(map[string]any{"trace": "t1"})
	require.NoError(t, d.Notify(context.Background(), "canceled", "e1"))
	require.NoError(t, events.Notify(context.Background(), "canceled", "e1"))

	require.Len(t, seen, 2)
	assert.Equal(t, map[string]any{"trace": "t1"}, seen[0])
	assert.Empty(t, seen[1])
	assert.Equal(t, map[string]any{"trace": "t1"}, d.Metadata())
}

func TestRecordFromContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events := f.base.Subclass("EventsDelivery")

	_, ok := delivery.RecordFromContext(context.Background())
	assert.False(t, ok)

	var (
		got  *delivery.Record
		attr slog.Attr
	)
	require.NoError(t, events.BeforeNotify("capture", func(ctx context.Context, _ *delivery.Record) bool {
		got, _ = delivery.RecordFromContext(ctx)
		attr, _ = delivery.LogExtractor(ctx)
		return true
	}))
	require.NoError(t, events.Notify(context.Background(), "canceled", "e1"))

	require.NotNil(t, got)
	assert.Equal(t, "canceled", got.Notification)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "dispatch", attr.Key)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())

	ctx := context.Background()
	_, ok = delivery.LogExtractor(ctx)
	assert.False(t, ok)
}
