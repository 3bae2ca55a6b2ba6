package delivery

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/job"
)

// Tracked is a dispatch captured instead of performed.
type Tracked struct {
	Class        *Class
	Params       job.Params
	Notification string
	Args         job.Args
	Sync         bool
	Enqueue      job.EnqueueOptions
}

// Tracker captures dispatches. Implementations must be safe for concurrent use.
type Tracker interface {
	Track(t Tracked)
}

type trackerKey struct{}

// WithTracker returns a context in which Notify and NotifyNow only report
// to t. Lines, callbacks and handlers are not run.
func WithTracker(ctx context.Context, t Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

func trackerFrom(ctx context.Context) Tracker {
	t, _ := ctx.Value(trackerKey{}).(Tracker)
	return t
}
