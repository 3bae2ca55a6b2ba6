package delivery

import (
	"context"
	"log/slog"
	"maps"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Record describes one Notify or NotifyNow call. Callbacks receive it as
// their target; line-scoped callbacks get a copy with Line set.
type Record struct {
	ID           string
	Notification string
	Args         job.Args
	Metadata     map[string]any
	Sync         bool
	Line         string

	delivery *Delivery
}

// NotificationName returns the action being dispatched.
func (r *Record) NotificationName() string { return r.Notification }

// Delivery returns the parameterized delivery that created the record.
func (r *Record) Delivery() *Delivery { return r.delivery }

// Class returns the delivery class.
func (r *Record) Class() *Class { return r.delivery.class }

// Params returns the params bound with With.
func (r *Record) Params() job.Params { return r.delivery.Params() }

func (r *Record) forLine(id string) *Record {
	cp := *r
	cp.Line = id
	cp.Metadata = maps.Clone(r.Metadata)
	return &cp
}

type recordKey struct{}

func withRecord(ctx context.Context, r *Record) context.Context {
	return context.WithValue(ctx, recordKey{}, r)
}

// RecordFromContext returns the record of the dispatch ctx belongs to.
// Handlers and their transports see it during Notify and NotifyNow.
func RecordFromContext(ctx context.Context) (*Record, bool) {
	r, ok := ctx.Value(recordKey{}).(*Record)
	return r, ok
}

// LogExtractor is a logger.ContextExtractor that adds the current dispatch
// to log records as a "dispatch" group.
func LogExtractor(ctx context.Context) (slog.Attr, bool) {
	r, ok := RecordFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	attrs := []slog.Attr{
		slog.String("id", r.ID),
		logger.Action(r.Notification),
	}
	if r.delivery != nil {
		attrs = append(attrs, logger.Delivery(r.delivery.class.name))
	}
	return logger.Group("dispatch", attrs...), true
}
