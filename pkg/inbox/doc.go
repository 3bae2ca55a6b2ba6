// Package inbox is an in-app notification store that doubles as a
// notifier.Driver.
//
// Plug it into a notifier handler class and deliveries land in the
// recipient's inbox:
//
//	box := inbox.New(inbox.NewMemoryStorage(), inbox.WithListener(sse))
//	app := notifier.New("ApplicationNotifier", notifier.WithDriver(box))
//	app.Action("commented", func(ctx context.Context, n *notifier.Instance, args job.Args) (*notifier.Notification, error) {
//		return n.Notification(notifier.Payload{
//			"to":    n.Params().String("user_id"),
//			"title": "New comment",
//			"body":  "Someone replied to your post",
//			"ttl":   "168h",
//		})
//	})
//
// The payload keys are listed as Key* constants. The UI side reads items
// back with List, CountUnread, MarkRead, MarkAllRead and Delete.
//
// Listeners are notified after an item is stored; their failures are
// logged and never undo the write.
package inbox
