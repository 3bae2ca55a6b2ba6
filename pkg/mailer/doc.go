// Package mailer provides action-based mailer classes on top of the email
// package.
//
// A mailer is a named class with actions. Each action builds a Message from
// its arguments and the params bound with With:
//
//	events := mailer.New("app.EventsMailer",
//		mailer.WithSender(sender),
//		mailer.WithAsyncAdapter(adapter),
//		mailer.WithDefaults(mailer.Defaults{Tag: "events"}),
//	)
//	events.Action("canceled", func(ctx context.Context, m *mailer.Instance, args job.Args) (*mailer.Message, error) {
//		msg := &mailer.Message{To: m.Params().String("email"), Subject: "Event canceled"}
//		return msg, msg.Render(ctx, views.Canceled(args))
//	})
//
//	err := events.With(job.Params{"email": "ann@example.com"}).
//		Mail("canceled", job.NewArgs(eventID)).
//		DeliverLater(ctx)
//
// Mail is lazy. DeliverNow runs the action and sends the result through the
// nearest EmailSender in the class chain. DeliverLater only enqueues a
// job.Job naming the mailer; a worker performs it through Perform, which
// rebuilds the message with the same params and arguments.
//
// Subclasses inherit the sender, the async adapter, defaults, actions and
// action callbacks, and may override each of them without touching the
// parent.
package mailer
