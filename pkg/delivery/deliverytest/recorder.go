// Package deliverytest captures delivery dispatches in tests instead of
// running them.
//
//	rec := deliverytest.Enable(ctx, func(ctx context.Context) {
//		_ = events.With(job.Params{"profile": "p1"}).Notify(ctx, "canceled", event)
//	})
//	deliverytest.AssertDelivered(t, rec, events, "canceled",
//		deliverytest.WithParams(job.Params{"profile": "p1"}),
//		deliverytest.WithArgs(event),
//	)
package deliverytest

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
)

// Recorder is a concurrency-safe delivery.Tracker.
type Recorder struct {
	mu      sync.Mutex
	tracked []delivery.Tracked
}

// Record attaches a new Recorder to ctx.
func Record(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return delivery.WithTracker(ctx, r), r
}

// Enable runs fn with a recording context and returns what it dispatched.
// Recording ends with fn; the caller's ctx is never affected.
func Enable(ctx context.Context, fn func(ctx context.Context)) *Recorder {
	ctx, r := Record(ctx)
	fn(ctx)
	return r
}

// Track implements delivery.Tracker.
func (r *Recorder) Track(t delivery.Tracked) {
	r.mu.Lock()
	r.tracked = append(r.tracked, t)
	r.mu.Unlock()
}

// Deliveries returns everything captured, in dispatch order.
func (r *Recorder) Deliveries() []delivery.Tracked {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery.Tracked(nil), r.tracked...)
}

// Len returns the number of captured dispatches.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tracked)
}

// Clear drops everything captured so far.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.tracked = nil
	r.mu.Unlock()
}
