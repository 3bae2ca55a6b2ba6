// Package notifiertest captures notifications in tests.
//
//	ctx, rec := notifiertest.Record(context.Background())
//	_ = n.NotifyNow(ctx)
//	notifiertest.AssertSent(t, rec, "EventsNotifier", notifier.Payload{"body": "Canceled"})
package notifiertest

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

// Recorder is a concurrency-safe notifier.Recorder.
type Recorder struct {
	mu       sync.Mutex
	sent     []notifier.Delivered
	enqueued []notifier.Delivered
}

// Record attaches a new Recorder to ctx.
func Record(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return notifier.WithRecorder(ctx, r), r
}

// RecordSent implements notifier.Recorder.
func (r *Recorder) RecordSent(d notifier.Delivered) {
	r.mu.Lock()
	r.sent = append(r.sent, d)
	r.mu.Unlock()
}

// RecordEnqueued implements notifier.Recorder.
func (r *Recorder) RecordEnqueued(d notifier.Delivered) {
	r.mu.Lock()
	r.enqueued = append(r.enqueued, d)
	r.mu.Unlock()
}

// Sent returns notifications delivered now.
func (r *Recorder) Sent() []notifier.Delivered {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifier.Delivered(nil), r.sent...)
}

// Enqueued returns notifications delivered later.
func (r *Recorder) Enqueued() []notifier.Delivered {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifier.Delivered(nil), r.enqueued...)
}

// Clear drops everything recorded so far.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.sent, r.enqueued = nil, nil
	r.mu.Unlock()
}
