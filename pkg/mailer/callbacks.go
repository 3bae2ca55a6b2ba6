package mailer

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/callback"
)

// CallbackOption filters an action callback.
type CallbackOption = callback.Option[*Instance]

// Only runs the callback for the listed actions.
func Only(actions ...string) CallbackOption { return callback.Only[*Instance](actions...) }

// Except skips the callback for the listed actions.
func Except(actions ...string) CallbackOption { return callback.Except[*Instance](actions...) }

// If runs the callback when pred holds.
func If(pred func(context.Context, *Instance) bool) CallbackOption { return callback.If(pred) }

// Unless runs the callback when pred does not hold.
func Unless(pred func(context.Context, *Instance) bool) CallbackOption {
	return callback.Unless(pred)
}

// BeforeAction registers a hook run before the action builds its message.
// Returning false halts and nothing is sent.
func (m *Mailer) BeforeAction(name string, fn callback.BeforeFunc[*Instance], opts ...CallbackOption) error {
	return m.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddBefore(name, fn, opts...)
	})
}

// AfterAction registers a hook run after a successful action.
func (m *Mailer) AfterAction(name string, fn callback.AfterFunc[*Instance], opts ...CallbackOption) error {
	return m.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddAfter(name, fn, opts...)
	})
}

// AroundAction registers a hook wrapping the action.
func (m *Mailer) AroundAction(name string, fn callback.AroundFunc[*Instance], opts ...CallbackOption) error {
	return m.mutateChain(func(c *callback.Chain[*Instance]) error {
		return c.AddAround(name, fn, opts...)
	})
}

// SkipAction removes a named action hook from this class only.
func (m *Mailer) SkipAction(kind callback.Kind, name string) {
	_ = m.mutateChain(func(c *callback.Chain[*Instance]) error {
		c.Skip(kind, name)
		return nil
	})
}

// chain returns the effective chain of the class: the ancestors' hooks with
// this class's registrations and skips replayed on top.
func (m *Mailer) chain() *callback.Chain[*Instance] {
	return m.def.chain()
}

func (m *Mailer) mutateChain(fn func(*callback.Chain[*Instance]) error) error {
	return m.def.callbacks.Apply(fn)
}

func (d *definition) chain() *callback.Chain[*Instance] {
	var inherited *callback.Chain[*Instance]
	if d.parent != nil {
		inherited = d.parent.chain()
	}
	return d.callbacks.Resolve(inherited)
}
