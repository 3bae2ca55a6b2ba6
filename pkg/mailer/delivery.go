package mailer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// MessageDelivery is a lazily built message of one mailer action.
type MessageDelivery struct {
	mailer *Mailer
	action string
	args   job.Args

	once sync.Once
	msg  *Message
	err  error
}

// Action returns the action name.
func (d *MessageDelivery) Action() string { return d.action }

// Mailer returns the mailer the message belongs to.
func (d *MessageDelivery) Mailer() *Mailer { return d.mailer }

// Message runs the action once and returns its message. A nil message
// with a nil error means the action built nothing or a callback halted it.
func (d *MessageDelivery) Message(ctx context.Context) (*Message, error) {
	d.once.Do(func() {
		d.msg, d.err = d.mailer.build(ctx, d.action, d.args)
	})
	return d.msg, d.err
}

// DeliverNow builds the message and sends it through the sender.
func (d *MessageDelivery) DeliverNow(ctx context.Context) error {
	msg, err := d.Message(ctx)
	if err != nil || msg == nil {
		return err
	}

	sender, err := d.mailer.Sender()
	if err != nil {
		return err
	}

	log := d.mailer.def.logger
	if err := sender.SendEmail(ctx, msg.SendParams()); err != nil {
		log.LogAttrs(ctx, slog.LevelError, "mail delivery failed",
			logger.HandlerName(d.mailer.Name()),
			logger.Action(d.action),
			logger.Error(err),
		)
		return err
	}

	log.LogAttrs(ctx, slog.LevelDebug, "mail delivered",
		logger.HandlerName(d.mailer.Name()),
		logger.Action(d.action),
	)
	return nil
}

// DeliverLater enqueues a job that builds and sends the message in a worker.
func (d *MessageDelivery) DeliverLater(ctx context.Context, opts ...job.EnqueueOption) error {
	adapter, err := d.mailer.AsyncAdapter()
	if err != nil {
		return err
	}
	return adapter.Enqueue(ctx, job.Job{
		Handler: d.mailer.Name(),
		Action:  d.action,
		Params:  d.mailer.params,
		Args:    d.args,
	}, opts...)
}
