package notifier

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/callback"
)

// CallbackOption filters a callback. Scope is chosen by the method used to register it.
type CallbackOption = callback.Option[*Instance]

// Only runs the callback for the listed actions.
func Only(actions ...string) CallbackOption { return callback.Only[*Instance](actions...) }

// Except skips the callback for the listed actions.
func Except(actions ...string) CallbackOption { return callback.Except[*Instance](actions...) }

// If runs the callback when pred holds.
func If(pred func(context.Context, *Instance) bool) CallbackOption { return callback.If(pred) }

// Unless runs the callback when pred does not hold.
func Unless(pred func(context.Context, *Instance) bool) CallbackOption { return callback.Unless(pred) }

// BeforeAction registers a hook run before the action function. Returning false halts.
func (n *Notifier) BeforeAction(name string, fn callback.BeforeFunc[*Instance], opts ...CallbackOption) error {
	return n.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddBefore(name, fn, scoped(ScopeAction, opts)...)
	})
}

// AfterAction registers a hook run after a successful action.
func (n *Notifier) AfterAction(name string, fn callback.AfterFunc[*Instance], opts ...CallbackOption) error {
	return n.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddAfter(name, fn, scoped(ScopeAction, opts)...)
	})
}

// AroundAction registers a hook wrapping the action.
func (n *Notifier) AroundAction(name string, fn callback.AroundFunc[*Instance], opts ...CallbackOption) error {
	return n.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddAround(name, fn, scoped(ScopeAction, opts)...)
	})
}

// BeforeDeliver registers a hook run before the driver is called. Returning false halts.
func (n *Notifier) BeforeDeliver(name string, fn callback.BeforeFunc[*Instance], opts ...CallbackOption) error {
	return n.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddBefore(name, fn, scoped(ScopeDeliver, opts)...)
	})
}

// AfterDeliver registers a hook run after a successful driver call.
func (n *Notifier) AfterDeliver(name string, fn callback.AfterFunc[*Instance], opts ...CallbackOption) error {
	return n.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddAfter(name, fn, scoped(ScopeDeliver, opts)...)
	})
}

// AroundDeliver registers a hook wrapping the driver call.
func (n *Notifier) AroundDeliver(name string, fn callback.AroundFunc[*Instance], opts ...CallbackOption) error {
	return n.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddAround(name, fn, scoped(ScopeDeliver, opts)...)
	})
}

// SkipCallback removes an inherited or own named hook from this class.
// scope is ScopeAction or ScopeDeliver.
func (n *Notifier) SkipCallback(scope string, kind callback.Kind, name string) {
	_ = n.mutateChain(func(c *callback.Chain[*Instance]) error {
		c.Skip(kind, name, callback.On[*Instance](scope))
		return nil
	})
}

func scoped(scope string, opts []CallbackOption) []CallbackOption {
	return append([]CallbackOption{callback.On[*Instance](scope)}, opts...)
}

// chain returns the effective chain of the class: the ancestors' hooks with
// this class's registrations and skips replayed on top.
func (n *Notifier) chain() *callback.Chain[*Instance] {
	return n.def.chain()
}

func (n *Notifier) mutateChain(fn func(*callback.Chain[*Instance]) error) error {
	return n.def.callbacks.Apply(fn)
}

func (d *definition) chain() *callback.Chain[*Instance] {
	var inherited *callback.Chain[*Instance]
	if d.parent != nil {
		inherited = d.parent.chain()
	}
	return d.callbacks.Resolve(inherited)
}
