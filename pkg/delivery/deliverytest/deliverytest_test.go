package deliverytest_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/delivery/deliverytest"
	"github.com/dmitrymomot/notifykit/pkg/job"
)

// fakeT collects assertion failures without failing the real test.
type fakeT struct {
	mu     sync.Mutex
	errors []string
}

func (f *fakeT) Errorf(format string, args ...any) {
	f.mu.Lock()
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeT) failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) > 0
}

func newEvents(t *testing.T) *delivery.Class {
	t.Helper()
	base := delivery.NewBase()
	require.NoError(t, base.RegisterLine("mailer", delivery.MailerLine))
	return base.Subclass("EventsDelivery")
}

func TestEnable_CapturesInsteadOfDispatching(t *testing.T) {
	t.Parallel()

	events := newEvents(t)
	ctx := context.Background()

	rec := deliverytest.Enable(ctx, func(ctx context.Context) {
		require.NoError(t, events.With(job.Params{"profile": "p1"}).Notify(ctx, "canceled", "evt-1", job.Kwargs{"reason": "rain"}))
		require.NoError(t, events.NotifyNow(ctx, "reminded", "evt-2"))
	})

	require.Equal(t, 2, rec.Len())
	got := rec.Deliveries()
	assert.Equal(t, "canceled", got[0].Notification)
	assert.False(t, got[0].Sync)
	assert.Equal(t, "p1", got[0].Params.String("profile"))
	assert.Equal(t, "reminded", got[1].Notification)
	assert.True(t, got[1].Sync)

	deliverytest.AssertDelivered(t, rec, events, "canceled",
		deliverytest.WithParams(job.Params{"profile": "p1"}),
		deliverytest.WithArgs("evt-1", job.Kwargs{"reason": "rain"}),
		deliverytest.Later(),
	)
	deliverytest.AssertDelivered(t, rec, events, "reminded", deliverytest.Synchronously())
	deliverytest.AssertDeliveries(t, rec, 2)
}

func TestEnable_ScopedToCallback(t *testing.T) {
	t.Parallel()

	events := newEvents(t)
	ctx := context.Background()

	rec := deliverytest.Enable(ctx, func(context.Context) {})
	deliverytest.AssertNoDeliveries(t, rec)

	// Outside the recording context the dispatch runs for real; with no
	// handler resolved every line is skipped.
	require.NoError(t, events.Notify(ctx, "canceled"))
	assert.Zero(t, rec.Len())
}

func TestRecorder_EnqueueOptions(t *testing.T) {
	t.Parallel()

	events := newEvents(t)
	ctx, rec := deliverytest.Record(context.Background())

	require.NoError(t, events.With(nil).WithEnqueueOptions(job.WithQueue("urgent")).Notify(ctx, "canceled"))

	require.Equal(t, 1, rec.Len())
	assert.Equal(t, "urgent", rec.Deliveries()[0].Enqueue.Queue)

	rec.Clear()
	deliverytest.AssertNoDeliveries(t, rec)
}

func TestEnable_StrictModeStillFails(t *testing.T) {
	t.Parallel()

	base := delivery.NewBase(delivery.WithConfig(delivery.Config{CacheClasses: true, RequireDeclaredActions: true}))
	require.NoError(t, base.RegisterLine("mailer", delivery.MailerLine))
	events := base.Subclass("EventsDelivery")
	events.Delivers("canceled")

	var undeclared error
	rec := deliverytest.Enable(context.Background(), func(ctx context.Context) {
		undeclared = events.Notify(ctx, "reminded", "evt-1")
		require.NoError(t, events.Notify(ctx, "canceled", "evt-1"))
	})

	assert.ErrorIs(t, undeclared, delivery.ErrUndeclaredAction)
	require.Equal(t, 1, rec.Len())
	assert.Equal(t, "canceled", rec.Deliveries()[0].Notification)
}

func TestAssertDelivered_Counts(t *testing.T) {
	t.Parallel()

	events := newEvents(t)
	other := events.Subclass("OtherDelivery")

	rec := deliverytest.Enable(context.Background(), func(ctx context.Context) {
		for range 3 {
			_ = events.Notify(ctx, "canceled")
		}
		_ = other.Notify(ctx, "canceled")
	})

	deliverytest.AssertDelivered(t, rec, events, "canceled", deliverytest.Times(3))
	deliverytest.AssertDelivered(t, rec, events, "canceled", deliverytest.AtLeast(2))
	deliverytest.AssertDelivered(t, rec, nil, "canceled", deliverytest.Times(4))
	deliverytest.AssertDelivered(t, rec, other, "", deliverytest.Times(1))

	ft := &fakeT{}
	assert.False(t, deliverytest.AssertDelivered(ft, rec, events, "canceled"), "default is exactly once")
	assert.True(t, ft.failed())
}

func TestAssertDelivered_Mismatch(t *testing.T) {
	t.Parallel()

	events := newEvents(t)
	rec := deliverytest.Enable(context.Background(), func(ctx context.Context) {
		_ = events.With(job.Params{"profile": "p1"}).NotifyNow(ctx, "canceled", "evt-1")
	})

	tests := []struct {
		name string
		opts []deliverytest.Match
	}{
		{"params", []deliverytest.Match{deliverytest.WithParams(job.Params{"profile": "p2"})}},
		{"missing param", []deliverytest.Match{deliverytest.WithParams(job.Params{"user": "u1"})}},
		{"args", []deliverytest.Match{deliverytest.WithArgs("evt-2")}},
		{"too many args", []deliverytest.Match{deliverytest.WithArgs("evt-1", "extra")}},
		{"kwargs", []deliverytest.Match{deliverytest.WithArgs(job.Kwargs{"reason": "rain"})}},
		{"mode", []deliverytest.Match{deliverytest.Later()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ft := &fakeT{}
			assert.False(t, deliverytest.AssertDelivered(ft, rec, events, "canceled", tt.opts...))
			assert.True(t, ft.failed())
		})
	}

	deliverytest.AssertDelivered(t, rec, events, "canceled",
		deliverytest.WithParams(job.Params{"profile": "p1"}),
		deliverytest.WithArgs("evt-1"),
		deliverytest.Synchronously(),
	)
}
