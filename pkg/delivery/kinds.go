package delivery

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/mailer"
	"github.com/dmitrymomot/notifykit/pkg/notifier"
)

// Kind is the channel-specific half of a line: which handlers it accepts,
// how they are parameterized and how an action is delivered now or later.
type Kind interface {
	// Name identifies the kind in manifests and logs.
	Name() string
	// Suffix replaces "Delivery" in convention-based resolution.
	Suffix() string
	// Supports reports whether h exposes action as a public action.
	Supports(h Handler, action string) bool
	// Parameterize binds params to h.
	Parameterize(h Handler, params job.Params) Handler
	NotifyNow(ctx context.Context, h Handler, action string, args job.Args) error
	NotifyLater(ctx context.Context, h Handler, action string, args job.Args, opts ...job.EnqueueOption) error
}

// Line kinds shipped with the package. NotifierLine is also the kind to use
// for custom notifier channels, combined with WithSuffix or a resolver.
var (
	MailerLine   Kind = MailerKind{}
	NotifierLine Kind = NotifierKind{}
)

// MailerKind delivers through mailer classes.
type MailerKind struct{}

func (MailerKind) Name() string   { return "mailer" }
func (MailerKind) Suffix() string { return "Mailer" }

func (MailerKind) Supports(h Handler, action string) bool {
	m, ok := h.(*mailer.Mailer)
	return ok && m.HasAction(action)
}

func (MailerKind) Parameterize(h Handler, params job.Params) Handler {
	if m, ok := h.(*mailer.Mailer); ok {
		return m.With(params)
	}
	return h
}

func (k MailerKind) NotifyNow(ctx context.Context, h Handler, action string, args job.Args) error {
	m, err := k.asMailer(h)
	if err != nil {
		return err
	}
	return m.Mail(action, args).DeliverNow(ctx)
}

func (k MailerKind) NotifyLater(ctx context.Context, h Handler, action string, args job.Args, opts ...job.EnqueueOption) error {
	m, err := k.asMailer(h)
	if err != nil {
		return err
	}
	return m.Mail(action, args).DeliverLater(ctx, opts...)
}

func (k MailerKind) asMailer(h Handler) (*mailer.Mailer, error) {
	m, ok := h.(*mailer.Mailer)
	if !ok {
		return nil, fmt.Errorf("%w: %s line got %T", ErrHandlerKind, k.Name(), h)
	}
	return m, nil
}

// NotifierKind delivers through notifier classes.
type NotifierKind struct{}

func (NotifierKind) Name() string   { return "notifier" }
func (NotifierKind) Suffix() string { return "Notifier" }

func (NotifierKind) Supports(h Handler, action string) bool {
	n, ok := h.(*notifier.Notifier)
	return ok && n.HasAction(action)
}

func (NotifierKind) Parameterize(h Handler, params job.Params) Handler {
	if n, ok := h.(*notifier.Notifier); ok {
		return n.With(params)
	}
	return h
}

func (k NotifierKind) NotifyNow(ctx context.Context, h Handler, action string, args job.Args) error {
	n, err := k.build(ctx, h, action, args)
	if err != nil || n == nil {
		return err
	}
	return n.NotifyNow(ctx)
}

func (k NotifierKind) NotifyLater(ctx context.Context, h Handler, action string, args job.Args, opts ...job.EnqueueOption) error {
	n, err := k.build(ctx, h, action, args)
	if err != nil || n == nil {
		return err
	}
	return n.NotifyLater(ctx, opts...)
}

func (k NotifierKind) build(ctx context.Context, h Handler, action string, args job.Args) (*notifier.Notification, error) {
	n, ok := h.(*notifier.Notifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s line got %T", ErrHandlerKind, k.Name(), h)
	}
	return n.Notification(ctx, action, args)
}
