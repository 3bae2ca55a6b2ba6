package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Delivery is a delivery class bound to params. It is immutable; the With*
// methods return modified copies.
type Delivery struct {
	class    *Class
	params   job.Params
	metadata map[string]any
	enqueue  []job.EnqueueOption
}

// With binds a frozen copy of params. Nothing is dispatched.
func (c *Class) With(params job.Params) *Delivery {
	return &Delivery{class: c, params: params.Clone()}
}

// Notify dispatches action to every applicable line for deferred delivery.
// job.Kwargs values among args become keyword arguments.
func (c *Class) Notify(ctx context.Context, action string, args ...any) error {
	return c.With(nil).Notify(ctx, action, args...)
}

// NotifyNow is Notify with immediate delivery on every line.
func (c *Class) NotifyNow(ctx context.Context, action string, args ...any) error {
	return c.With(nil).NotifyNow(ctx, action, args...)
}

// Action returns a dispatcher bound to one action. See Delivery.Action.
func (c *Class) Action(name string) (*Action, error) {
	return c.With(nil).Action(name)
}

// Class returns the delivery class.
func (d *Delivery) Class() *Class { return d.class }

// Params returns a copy of the bound params.
func (d *Delivery) Params() job.Params { return d.params.Clone() }

// Metadata returns a copy of the metadata attached to records.
func (d *Delivery) Metadata() map[string]any { return maps.Clone(d.metadata) }

// WithMetadata returns a copy whose records carry md merged over the
// current metadata. Metadata is visible to callbacks only.
func (d *Delivery) WithMetadata(md map[string]any) *Delivery {
	cp := d.clone()
	if cp.metadata == nil {
		cp.metadata = make(map[string]any, len(md))
	}
	maps.Copy(cp.metadata, md)
	return cp
}

// WithEnqueueOptions returns a copy that forwards opts to the async adapters
// of deferred lines.
func (d *Delivery) WithEnqueueOptions(opts ...job.EnqueueOption) *Delivery {
	cp := d.clone()
	cp.enqueue = append(cp.enqueue, opts...)
	return cp
}

func (d *Delivery) clone() *Delivery {
	return &Delivery{
		class:    d.class,
		params:   d.params,
		metadata: maps.Clone(d.metadata),
		enqueue:  slices.Clone(d.enqueue),
	}
}

// Notify dispatches action to every applicable line for deferred delivery.
func (d *Delivery) Notify(ctx context.Context, action string, args ...any) error {
	return d.dispatch(ctx, action, args, false)
}

// NotifyNow dispatches action to every applicable line for immediate delivery.
func (d *Delivery) NotifyNow(ctx context.Context, action string, args ...any) error {
	return d.dispatch(ctx, action, args, true)
}

// Action returns a dispatcher bound to name. Declared actions are always
// available. Otherwise ErrUndeclaredAction is returned in strict mode, or
// when no line can deliver name.
func (d *Delivery) Action(name string) (*Action, error) {
	c := d.class
	if !c.Declares(name) {
		if c.Config().RequireDeclaredActions {
			return nil, fmt.Errorf("%w: %s#%s (strict mode)", ErrUndeclaredAction, c.name, name)
		}
		if !c.Supports(name) {
			return nil, fmt.Errorf("%w: %s#%s is not delivered by any line", ErrUndeclaredAction, c.name, name)
		}
	}
	return &Action{delivery: d, name: name}, nil
}

// Action is a delivery bound to a single action.
type Action struct {
	delivery *Delivery
	name     string
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Notify is Delivery.Notify for the bound action.
func (a *Action) Notify(ctx context.Context, args ...any) error {
	return a.delivery.Notify(ctx, a.name, args...)
}

// NotifyNow is Delivery.NotifyNow for the bound action.
func (a *Action) NotifyNow(ctx context.Context, args ...any) error {
	return a.delivery.NotifyNow(ctx, a.name, args...)
}

func (d *Delivery) dispatch(ctx context.Context, action string, values []any, sync bool) error {
	c := d.class
	rec := &Record{
		ID:           uuid.NewString(),
		Notification: action,
		Args:         job.NewArgs(values...),
		Metadata:     maps.Clone(d.metadata),
		Sync:         sync,
		delivery:     d,
	}

	if c.Config().RequireDeclaredActions && !c.Declares(action) {
		return fmt.Errorf("%w: %s#%s (strict mode)", ErrUndeclaredAction, c.name, action)
	}

	if t := trackerFrom(ctx); t != nil {
		t.Track(Tracked{
			Class:        c,
			Params:       d.Params(),
			Notification: action,
			Args:         rec.Args.Clone(),
			Sync:         sync,
			Enqueue:      job.ApplyEnqueueOptions(d.enqueue...),
		})
		d.observe(ctx, Event{Class: c.name, Action: action, Sync: sync, Outcome: OutcomeRecorded})
		return nil
	}

	ctx = withRecord(ctx, rec)
	completed, err := c.chain().Run(ctx, "", rec, func(ctx context.Context) error {
		return d.perform(ctx, rec)
	})
	if err != nil {
		return err
	}
	if !completed {
		c.env.logger.LogAttrs(ctx, slog.LevelDebug, "delivery halted by callback",
			logger.Delivery(c.name),
			logger.Action(action),
		)
		d.observe(ctx, Event{Class: c.name, Action: action, Sync: sync, Outcome: OutcomeHalted})
	}
	return nil
}

// perform visits lines in registration order. A failing line does not stop
// the others; all line errors are joined.
func (d *Delivery) perform(ctx context.Context, rec *Record) error {
	c := d.class
	log := c.env.logger
	chain := c.chain()

	var errs []error
	for _, line := range c.Lines() {
		ev := Event{Class: c.name, Line: line.id, Action: rec.Notification, Sync: rec.Sync}

		h := line.Handler()
		if h == nil || !line.kind.Supports(h, rec.Notification) {
			log.LogAttrs(ctx, slog.LevelDebug, "delivery line skipped",
				logger.Delivery(c.name),
				logger.Line(line.id),
				logger.Action(rec.Notification),
			)
			ev.Outcome = OutcomeSkipped
			d.observe(ctx, ev)
			continue
		}
		ev.Handler = h.Name()

		start := time.Now()
		completed, err := chain.Run(ctx, line.id, rec.forLine(line.id), func(ctx context.Context) error {
			return line.Notify(ctx, rec.Notification, rec.Args, d.params, rec.Sync, d.enqueue...)
		})
		ev.Duration = time.Since(start)

		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("delivery line %s: %w", line.id, err))
			log.LogAttrs(ctx, slog.LevelError, "delivery line failed",
				logger.Delivery(c.name),
				logger.Line(line.id),
				logger.HandlerName(h.Name()),
				logger.Action(rec.Notification),
				logger.Error(err),
			)
			ev.Outcome, ev.Err = OutcomeFailed, err
		case !completed:
			log.LogAttrs(ctx, slog.LevelDebug, "delivery line halted by callback",
				logger.Delivery(c.name),
				logger.Line(line.id),
				logger.Action(rec.Notification),
			)
			ev.Outcome = OutcomeHalted
		case rec.Sync:
			ev.Outcome = OutcomeDelivered
		default:
			ev.Outcome = OutcomeEnqueued
		}
		d.observe(ctx, ev)
	}
	return errors.Join(errs...)
}

func (d *Delivery) observe(ctx context.Context, e Event) {
	if o := d.class.env.observer; o != nil {
		o.Observe(ctx, e)
	}
}
