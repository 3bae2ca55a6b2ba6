// Package delivery routes one logical notification to every channel that can
// handle it.
//
// A delivery class groups related notifications (EventsDelivery) and owns a
// set of lines, one per channel. Each line resolves a handler class, a mailer
// or a notifier, and hands the action to it either immediately or through
// the handler's async adapter.
//
//	base := delivery.NewBase(delivery.WithCatalog(delivery.NewCatalog(eventsMailer, eventsNotifier)))
//	_ = base.RegisterLine("mailer", delivery.MailerLine)
//	_ = base.RegisterLine("push", delivery.NotifierLine)
//
//	events := base.Subclass("EventsDelivery")
//	err := events.With(job.Params{"profile": profileID}).Notify(ctx, "canceled", event)
//
// # Resolution
//
// Handlers are resolved lazily per line and memoized unless
// Config.CacheClasses is off:
//
//  1. abstract classes resolve nothing
//  2. a handler pinned with SetHandler, SetHandlerName, WithHandler or
//     WithHandlerName, on this class or the nearest ancestor
//  3. the line resolver: WithResolver, WithResolverPattern, or the suffix
//     convention EventsDelivery -> EventsMailer / EventsNotifier
//  4. the parent's handler for the same line, unless the parent is the root
//
// An unresolved handler is not an error; the line is skipped. So is a line
// whose handler does not expose the action.
//
// # Inheritance
//
// A subclass copies its parent's lines on first use and may then register,
// replace or unregister lines without touching the parent. Callbacks are
// not copied: a subclass always sees its ancestors' current hooks, with its
// own registrations and skips applied on top. Abstract is never inherited.
//
// # Callbacks
//
// BeforeNotify, AroundNotify and AfterNotify wrap the whole dispatch, or a
// single line when registered with On(lineID). A before hook returning false
// halts its scope; so does an around hook that never calls next. After hooks
// run only for scopes that completed without error. Only, Except, If and
// Unless filter by action and predicate; all filters must hold.
//
// # Errors
//
// Lines are independent: a failing line does not prevent the remaining lines
// from running, and the errors of all failed lines are joined. With
// Config.RequireDeclaredActions, actions must be declared with Delivers or
// dispatch fails with ErrUndeclaredAction.
//
// # Testing
//
// The deliverytest package captures dispatches through a context-scoped
// Tracker, so parallel tests never observe each other's deliveries.
package delivery
