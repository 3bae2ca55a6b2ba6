package notifier

import "context"

// Delivered describes a notification captured by a Recorder.
type Delivered struct {
	Notifier string
	Action   string
	Params   map[string]any
	Payload  Payload
}

// Recorder captures notifications instead of sending them.
type Recorder interface {
	RecordSent(d Delivered)
	RecordEnqueued(d Delivered)
}

type recorderKey struct{}

// WithRecorder returns a context whose notifications are captured by r.
func WithRecorder(ctx context.Context, r Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

func recorderFrom(ctx context.Context) Recorder {
	r, _ := ctx.Value(recorderKey{}).(Recorder)
	return r
}

// recording reports whether deliveries should be captured rather than sent.
// In test mode without a recorder they are dropped.
func recording(ctx context.Context, mode Mode) bool {
	return mode == ModeTest || recorderFrom(ctx) != nil
}

func delivered(n *Notification) Delivered {
	return Delivered{
		Notifier: n.Owner().Name(),
		Action:   n.Action(),
		Params:   n.Owner().Params(),
		Payload:  n.Payload.Clone(),
	}
}

func recordSent(ctx context.Context, n *Notification) {
	if r := recorderFrom(ctx); r != nil {
		r.RecordSent(delivered(n))
	}
}

func recordEnqueued(ctx context.Context, n *Notification) {
	if r := recorderFrom(ctx); r != nil {
		r.RecordEnqueued(delivered(n))
	}
}
