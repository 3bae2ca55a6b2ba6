package notifier

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Instance is the per-call receiver handed to actions and callbacks.
type Instance struct {
	notifier *Notifier
	action   string
	args     job.Args
	result   *Notification
}

// NotificationName returns the action being run.
func (i *Instance) NotificationName() string { return i.action }

// Notifier returns the (possibly parameterized) notifier class.
func (i *Instance) Notifier() *Notifier { return i.notifier }

// Params returns the params bound with With.
func (i *Instance) Params() job.Params { return i.notifier.Params() }

// Args returns the action arguments.
func (i *Instance) Args() job.Args { return i.args }

// Result returns the notification built by this instance, if any.
func (i *Instance) Result() *Notification { return i.result }

// Notification merges defaults into payload and validates it. Keys already
// present in payload win over defaults. When the class has a defaults
// generator, its output replaces the static defaults.
func (i *Instance) Notification(payload Payload) (*Notification, error) {
	p := payload.Clone()

	var defaults Payload
	if gen := i.notifier.defaultsGenerator(); gen != nil {
		defaults = gen(i)
	} else {
		defaults = i.notifier.DefaultParams()
	}
	for k, v := range defaults {
		if _, ok := p[k]; !ok {
			p[k] = v
		}
	}

	if !p.hasBody() {
		return nil, ErrBodyRequired
	}

	i.result = &Notification{Payload: p, instance: i}
	return i.result, nil
}

// Notification is a built payload bound to the notifier that produced it.
type Notification struct {
	Payload  Payload
	instance *Instance
}

// Owner returns the notifier that built the notification.
func (n *Notification) Owner() *Notifier { return n.instance.notifier }

// Action returns the action that built the notification.
func (n *Notification) Action() string { return n.instance.action }

// NotifyNow sends the payload through the driver, wrapped by deliver callbacks.
func (n *Notification) NotifyNow(ctx context.Context) error {
	owner := n.Owner()
	switch mode := owner.Mode(); {
	case mode == ModeNoop:
		return nil
	case recording(ctx, mode):
		recordSent(ctx, n)
		return nil
	}

	driver, err := owner.Driver()
	if err != nil {
		return err
	}

	completed, err := owner.chain().Run(ctx, ScopeDeliver, n.instance, func(ctx context.Context) error {
		return driver.Deliver(ctx, n.Payload)
	})
	if err != nil {
		owner.logger().LogAttrs(ctx, slog.LevelError, "notification delivery failed",
			logger.HandlerName(owner.Name()),
			logger.Action(n.Action()),
			logger.Error(err),
		)
		return err
	}
	if !completed {
		owner.logger().LogAttrs(ctx, slog.LevelDebug, "notification delivery halted by callback",
			logger.HandlerName(owner.Name()),
			logger.Action(n.Action()),
		)
	}
	return nil
}

// NotifyLater enqueues the built payload. The worker delivers it without
// running the action again.
func (n *Notification) NotifyLater(ctx context.Context, opts ...job.EnqueueOption) error {
	owner := n.Owner()
	switch mode := owner.Mode(); {
	case mode == ModeNoop:
		return nil
	case recording(ctx, mode):
		recordEnqueued(ctx, n)
		return nil
	}

	adapter, err := owner.AsyncAdapter()
	if err != nil {
		return err
	}

	return adapter.Enqueue(ctx, job.Job{
		Handler: owner.Name(),
		Action:  n.Action(),
		Params:  owner.params,
		Args:    n.instance.args,
		Payload: n.Payload.Clone(),
	}, opts...)
}
