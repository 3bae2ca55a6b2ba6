// Package notifier builds text notifications (push, SMS, chat, in-app) from
// named actions and hands them to a driver, the way a mailer builds emails.
//
// A Notifier is a handler class. Subclasses inherit the driver, the async
// adapter, default payload values, the defaults generator, actions and
// callbacks of their parent, and may override any of them:
//
//	app := notifier.New("ApplicationNotifier",
//		notifier.WithDriver(pushService),
//		notifier.WithAsyncAdapter(adapter),
//	)
//	app.Default(notifier.Payload{"sound": "default"})
//
//	events := app.Subclass("EventsNotifier")
//	events.Action("canceled", func(ctx context.Context, n *notifier.Instance, args job.Args) (*notifier.Notification, error) {
//		var event Event
//		if err := args.Decode(0, &event); err != nil {
//			return nil, err
//		}
//		return n.Notification(notifier.Payload{
//			"body":     "Event " + event.Title + " has been canceled",
//			"identity": n.Params().String("profile_id"),
//		})
//	})
//
//	n, err := events.With(job.Params{"profile_id": "p1"}).Notification(ctx, "canceled", job.NewArgs(event))
//	if err == nil && n != nil {
//		err = n.NotifyLater(ctx)
//	}
//
// # Delivery modes
//
// ModeNormal delivers through the driver, ModeNoop drops everything and
// ModeTest records into the Recorder found in the context (see the
// notifiertest package). A Recorder in the context takes effect in any mode
// except noop.
//
// # Callbacks
//
// Action callbacks wrap the action function; delivery callbacks wrap the
// driver call in NotifyNow. Both use the semantics of the callback package.
//
// # Deferred delivery
//
// NotifyLater enqueues a job.Job naming the notifier, action, params and
// arguments. A worker rebuilds the notification with Perform and delivers it
// right away.
package notifier
